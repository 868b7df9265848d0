package main

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// balance records of the contract storage are prefixed with this byte.
const accountPrefix = 'a'

// errEmptyChain is returned when the chain has no blocks to take state from.
var errEmptyChain = errors.New("chain has no blocks")

// stateReader provides historical contract storage. [rpcclient.Client]
// satisfies it if the node keeps state roots.
type stateReader interface {
	GetBlockCount() (uint32, error)
	GetStateRootByHeight(height uint32) (*state.MPTRoot, error)
	FindStates(root util.Uint256, contract util.Uint160, prefix, start []byte, maxCount *int) (result.FindStates, error)
}

// iterateContractStorage iterates over all storage items of the Neo smart
// contract referenced by given address with the given key prefix and passes
// them into f. iterateContractStorage breaks on any f's error and returns it.
func iterateContractStorage(x stateReader, contract util.Uint160, prefix []byte, f func(key, value []byte) error) error {
	nLatestBlock, err := x.GetBlockCount()
	if err != nil {
		return fmt.Errorf("get number of the latest block: %w", err)
	}

	if nLatestBlock == 0 {
		return errEmptyChain
	}

	root, err := x.GetStateRootByHeight(nLatestBlock - 1)
	if err != nil {
		return fmt.Errorf("get state root at penult block #%d: %w", nLatestBlock-1, err)
	}

	var start []byte

	for {
		res, err := x.FindStates(root.Root, contract, prefix, start, nil)
		if err != nil {
			return fmt.Errorf("get historical storage items of the requested contract at state root '%s': %w", root.Root, err)
		}

		for i := range res.Results {
			err = f(res.Results[i].Key, res.Results[i].Value)
			if err != nil {
				return err
			}
		}

		if !res.Truncated || len(res.Results) == 0 {
			return nil
		}

		start = res.Results[len(res.Results)-1].Key
	}
}

// onChainHolders lists all accounts having non-zero balance record in the
// contract storage.
func onChainHolders(x stateReader, contract util.Uint160) ([]util.Uint160, error) {
	var res []util.Uint160

	err := iterateContractStorage(x, contract, []byte{accountPrefix}, func(key, _ []byte) error {
		if len(key) == util.Uint160Size+1 && key[0] == accountPrefix {
			key = key[1:]
		}

		acc, err := util.Uint160DecodeBytesBE(key)
		if err != nil {
			return fmt.Errorf("invalid balance record key %x: %w", key, err)
		}

		res = append(res, acc)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
