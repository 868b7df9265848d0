package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/erc20-contract/contracts"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"go.uber.org/zap"
)

// ErrDeployFault is returned when deployment transaction was accepted by the
// chain but its execution failed.
var ErrDeployFault = errors.New("deployment transaction faulted")

// Blockchain groups services provided by particular Neo blockchain network
// that are required for token contract deployment. [rpcclient.Client]
// satisfies it.
type Blockchain interface {
	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// Actor sends transactions on behalf of the deployer and waits for their
// acceptance. [actor.Actor] satisfies it.
type Actor interface {
	// Sender returns the account sending transactions. Contract address
	// depends on it.
	Sender() util.Uint160

	// SendCall creates, signs and sends transaction calling the contract method.
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)

	// Wait waits until the transaction is accepted by the chain or expires.
	Wait(h util.Uint256, vub uint32, err error) (*state.AppExecResult, error)
}

// Prm groups parameters of the token contract deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance the contract is deployed to.
	Blockchain Blockchain

	// Deployer of the contract.
	Actor Actor

	// Compiled token contract.
	Contract contracts.Contract

	// Amount of tokens allocated to the owner. Must be non-negative.
	InitialSupply *big.Int

	// Optional account receiving the whole supply. Defaults to the deployer.
	Owner *util.Uint160
}

// Deploy deploys token contract to the chain and returns its address. If
// the contract with the same address already exists, Deploy does nothing
// but returns the address: the initial supply is never allocated twice.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	data, err := deployData(prm.InitialSupply, prm.Owner)
	if err != nil {
		return util.Uint160{}, err
	}

	addr := state.CreateContractHash(prm.Actor.Sender(), prm.Contract.NEF.Checksum, prm.Contract.Manifest.Name)
	log := prm.Logger.With(zap.String("contract", addr.StringLE()))

	_, err = prm.Blockchain.GetContractStateByHash(addr)
	if err == nil {
		log.Info("token contract is already deployed, skip")
		return addr, nil
	}

	if !isErrContractNotFound(err) {
		return util.Uint160{}, fmt.Errorf("get state of the token contract by address: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return util.Uint160{}, err
	}

	bNEF, err := prm.Contract.NEF.Bytes()
	if err != nil {
		return util.Uint160{}, fmt.Errorf("encode NEF: %w", err)
	}

	jManifest, err := json.Marshal(prm.Contract.Manifest)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("encode manifest into JSON: %w", err)
	}

	log.Info("deploying token contract...",
		zap.Stringer("supply", prm.InitialSupply))

	res, err := prm.Actor.Wait(prm.Actor.SendCall(management.Hash, "deploy", bNEF, jManifest, data))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("send deployment transaction: %w", err)
	}

	if res.VMState != vmstate.Halt {
		return util.Uint160{}, fmt.Errorf("%w: %s", ErrDeployFault, res.FaultException)
	}

	log.Info("token contract successfully deployed", zap.String("tx", res.Container.StringLE()))

	return addr, nil
}

// deployData builds argument of the contract's _deploy method.
func deployData(supply *big.Int, owner *util.Uint160) ([]any, error) {
	if supply == nil || supply.Sign() < 0 {
		return nil, fmt.Errorf("invalid initial supply %v", supply)
	}

	if owner == nil {
		return []any{supply}, nil
	}

	return []any{supply, *owner}, nil
}

func isErrContractNotFound(err error) bool {
	return strings.Contains(err.Error(), "Unknown contract")
}
