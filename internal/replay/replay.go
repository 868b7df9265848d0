// Package replay rebuilds token ledger from Transfer notifications of the
// deployed contract and checks it against the chain.
package replay

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/erc20-contract/ledger"
	"github.com/nspcc-dev/erc20-contract/rpc/erc20"
	"github.com/nspcc-dev/neo-go/pkg/core/block"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

const cursorKey = 'r'

// ErrDivergence is returned when the chain history can't be reproduced by the
// ledger or the final state differs.
var ErrDivergence = errors.New("ledger divergence")

// Chain provides blocks and execution results of the blockchain.
// [rpcclient.Client] satisfies it.
type Chain interface {
	GetBlockCount() (uint32, error)
	GetBlockByIndex(index uint32) (*block.Block, error)
	GetApplicationLog(hash util.Uint256, trig *trigger.Type) (*result.ApplicationLog, error)
}

// Reader provides current on-chain state of the contract. [erc20.ContractReader]
// satisfies it.
type Reader interface {
	TotalSupply() (*big.Int, error)
	BalanceOf(account util.Uint160) (*big.Int, error)
}

// Replayer applies Transfer notifications to the ledger replica.
type Replayer struct {
	log *zap.Logger

	proc *ledger.Processor

	// next block to process
	cursor uint32
}

// New constructs Replayer starting from scratch.
func New(log *zap.Logger) *Replayer {
	if log == nil {
		log = zap.NewNop()
	}

	return &Replayer{log: log}
}

// Open constructs Replayer continuing from the state committed into the store
// previously. Empty store means replay from scratch.
func Open(st storage.Store, log *zap.Logger) (*Replayer, error) {
	r := New(log)

	l, err := ledger.Load(st)
	if err != nil {
		if !errors.Is(err, ledger.ErrNoState) {
			return nil, fmt.Errorf("load ledger: %w", err)
		}
	} else {
		r.proc = ledger.NewProcessor(l, nil, ledger.WithLogger(r.log))
	}

	raw, err := st.Get([]byte{cursorKey})
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("read cursor: %w", err)
		}
		return r, nil
	}

	if len(raw) != 4 {
		return nil, fmt.Errorf("%w: invalid cursor length %d", ledger.ErrCorruptedState, len(raw))
	}

	r.cursor = binary.LittleEndian.Uint32(raw)

	return r, nil
}

// Commit saves replica state and position in the chain into the store at
// once.
func (r *Replayer) Commit(st storage.Store) error {
	cache := storage.NewMemCachedStore(st)

	if r.proc != nil {
		err := ledger.Save(cache, r.proc.Ledger())
		if err != nil {
			return err
		}
	}

	cursor := make([]byte, 4)
	binary.LittleEndian.PutUint32(cursor, r.cursor)
	cache.Put([]byte{cursorKey}, cursor)

	_, err := cache.Persist()
	if err != nil {
		return fmt.Errorf("persist replay state: %w", err)
	}

	return nil
}

// Cursor returns index of the next block to be processed by Sync.
func (r *Replayer) Cursor() uint32 {
	return r.cursor
}

// Ledger returns replica. Nil until the genesis notification is applied.
func (r *Replayer) Ledger() *ledger.Ledger {
	if r.proc == nil {
		return nil
	}
	return r.proc.Ledger()
}

// Apply applies single Transfer notification to the replica. The first one
// must be the genesis notification.
func (r *Replayer) Apply(e *erc20.TransferEvent) error {
	if e.Amount == nil || e.Amount.Sign() < 0 {
		return fmt.Errorf("%w: invalid amount %v", ErrDivergence, e.Amount)
	}

	amount, overflow := uint256.FromBig(e.Amount)
	if overflow {
		return fmt.Errorf("%w: amount %s overflows", ErrDivergence, e.Amount)
	}

	if e.To == nil {
		return fmt.Errorf("%w: missing recipient", ErrDivergence)
	}

	if e.From == nil {
		if r.proc != nil {
			return fmt.Errorf("%w: repeated genesis to %s", ErrDivergence, e.To.StringLE())
		}

		r.proc = ledger.Construct(amount, *e.To, nil, ledger.WithLogger(r.log))
		r.log.Info("genesis replayed",
			zap.String("owner", e.To.StringLE()),
			zap.Stringer("supply", e.Amount))

		return nil
	}

	if r.proc == nil {
		return fmt.Errorf("%w: transfer from %s before genesis", ErrDivergence, e.From.StringLE())
	}

	if !r.proc.Transfer(*e.From, *e.To, amount) {
		return fmt.Errorf("%w: %s can't transfer %s to %s",
			ErrDivergence, e.From.StringLE(), e.Amount, e.To.StringLE())
	}

	return nil
}

// Sync applies Transfer notifications of the contract from all blocks
// starting from the cursor up to the current chain height. onBlock is called
// after each processed block, if set. Sync stops on the first error and
// leaves the cursor at the failed block.
func (r *Replayer) Sync(ctx context.Context, c Chain, contract util.Uint160, onBlock func(index uint32) error) error {
	count, err := c.GetBlockCount()
	if err != nil {
		return fmt.Errorf("get block count: %w", err)
	}

	r.log.Info("syncing ledger replica",
		zap.Uint32("from", r.cursor),
		zap.Uint32("to", count))

	for r.cursor < count {
		if err := ctx.Err(); err != nil {
			return err
		}

		index := r.cursor

		b, err := c.GetBlockByIndex(index)
		if err != nil {
			return fmt.Errorf("get block #%d: %w", index, err)
		}

		for _, tx := range b.Transactions {
			appLog, err := c.GetApplicationLog(tx.Hash(), nil)
			if err != nil {
				return fmt.Errorf("get application log of tx %s: %w", tx.Hash().StringLE(), err)
			}

			events, err := erc20.ContractTransferEvents(appLog, contract)
			if err != nil {
				return fmt.Errorf("decode events of tx %s: %w", tx.Hash().StringLE(), err)
			}

			for i := range events {
				if err = r.Apply(events[i]); err != nil {
					return fmt.Errorf("tx %s: %w", tx.Hash().StringLE(), err)
				}
			}

			if len(events) > 0 {
				r.log.Debug("transaction replayed",
					zap.Uint32("block", index),
					zap.String("tx", tx.Hash().StringLE()),
					zap.Int("events", len(events)))
			}
		}

		r.cursor = index + 1

		if onBlock != nil {
			if err = onBlock(index); err != nil {
				return err
			}
		}
	}

	return nil
}

// Verify compares replica with the on-chain state: total supply and balances
// of all replica holders and the additionally given accounts. All mismatches
// are logged, the returned error is ErrDivergence if there is at least one.
func (r *Replayer) Verify(rd Reader, accounts ...util.Uint160) error {
	l := r.Ledger()
	if l == nil {
		return fmt.Errorf("%w: genesis has not been replayed", ErrDivergence)
	}

	var mismatches int

	supply, err := rd.TotalSupply()
	if err != nil {
		return fmt.Errorf("read total supply: %w", err)
	}

	if local := l.TotalSupply().ToBig(); local.Cmp(supply) != 0 {
		r.log.Error("total supply mismatch",
			zap.Stringer("replica", local),
			zap.Stringer("chain", supply))
		mismatches++
	}

	if circ := l.Circulating(); !circ.Eq(l.TotalSupply()) {
		r.log.Error("replica violates supply conservation",
			zap.Stringer("circulating", circ.ToBig()))
		mismatches++
	}

	checked := make(map[util.Uint160]struct{})
	for _, acc := range append(l.Holders(), accounts...) {
		if _, ok := checked[acc]; ok {
			continue
		}
		checked[acc] = struct{}{}

		onChain, err := rd.BalanceOf(acc)
		if err != nil {
			return fmt.Errorf("read balance of %s: %w", acc.StringLE(), err)
		}

		if local := l.BalanceOf(acc).ToBig(); local.Cmp(onChain) != 0 {
			r.log.Error("balance mismatch",
				zap.String("account", acc.StringLE()),
				zap.Stringer("replica", local),
				zap.Stringer("chain", onChain))
			mismatches++
		}
	}

	if mismatches > 0 {
		return fmt.Errorf("%w: %d mismatches", ErrDivergence, mismatches)
	}

	r.log.Info("replica matches the chain",
		zap.Int("accounts", len(checked)),
		zap.Stringer("supply", supply))

	return nil
}
