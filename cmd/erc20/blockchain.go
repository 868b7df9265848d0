package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

const rpcTimeout = 15 * time.Second

// remoteBlockchain wraps Neo RPC client and the actor signing transactions
// with the wallet account.
type remoteBlockchain struct {
	rpc   *rpcclient.Client
	actor *actor.Actor
}

// newRemoteReader dials Neo RPC server for read-only requests. Connection
// and all requests are done within 15s timeout.
func newRemoteReader(ctx context.Context, endpoint string) (*rpcclient.Client, error) {
	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{
		DialTimeout:    rpcTimeout,
		RequestTimeout: rpcTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	if err = c.Init(); err != nil {
		c.Close()
		return nil, fmt.Errorf("RPC client init: %w", err)
	}

	return c, nil
}

// newRemoteBlockchain dials Neo RPC server and returns remoteBlockchain
// sending transactions from the first account of the wallet.
func newRemoteBlockchain(ctx context.Context, endpoint, walletPath, password string) (*remoteBlockchain, error) {
	w, err := wallet.NewWalletFromFile(walletPath)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}
	defer w.Close()

	if len(w.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts in wallet '%s'", walletPath)
	}

	acc := w.Accounts[0]
	if err = acc.Decrypt(password, w.Scrypt); err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", acc.Address, err)
	}

	c, err := newRemoteReader(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	act, err := actor.NewSimple(c, acc)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init actor: %w", err)
	}

	return &remoteBlockchain{
		rpc:   c,
		actor: act,
	}, nil
}

func (x *remoteBlockchain) close() {
	x.rpc.Close()
}
