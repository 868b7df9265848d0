package ledger

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

const (
	supplyKey = 's'
	accPrefix = 'a'

	balanceSize = 32
)

var (
	// ErrNoState is returned by Load when the store holds no ledger.
	ErrNoState = errors.New("no ledger state")

	// ErrCorruptedState is returned by Load when stored state is malformed or
	// violates supply conservation.
	ErrCorruptedState = errors.New("corrupted ledger state")
)

// Save writes state of the Ledger into the store replacing the previously
// saved one.
func Save(st storage.Store, l *Ledger) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	cache := storage.NewMemCachedStore(st)

	supply := l.totalSupply.Bytes32()
	cache.Put([]byte{supplyKey}, supply[:])

	st.Seek(storage.SeekRange{Prefix: []byte{accPrefix}}, func(k, _ []byte) bool {
		acc, ok := accountFromKey(k)
		if !ok {
			return true
		}

		if _, ok = l.balances[acc]; !ok {
			cache.Delete(bytes.Clone(k))
		}

		return true
	})

	for acc, b := range l.balances {
		v := b.Bytes32()
		cache.Put(accountKey(acc), v[:])
	}

	_, err := cache.Persist()
	if err != nil {
		return fmt.Errorf("persist ledger state: %w", err)
	}

	return nil
}

// Load reads Ledger saved by Save. Returns ErrNoState if there is nothing
// saved yet.
func Load(st storage.Store) (*Ledger, error) {
	raw, err := st.Get([]byte{supplyKey})
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrNoState
		}

		return nil, fmt.Errorf("read total supply: %w", err)
	}

	if len(raw) != balanceSize {
		return nil, fmt.Errorf("%w: total supply is %d bytes", ErrCorruptedState, len(raw))
	}

	l := &Ledger{
		balances: make(map[util.Uint160]uint256.Int),
	}
	l.totalSupply.SetBytes(raw)

	st.Seek(storage.SeekRange{Prefix: []byte{accPrefix}}, func(k, v []byte) bool {
		acc, ok := accountFromKey(k)
		if !ok || len(v) != balanceSize {
			err = fmt.Errorf("%w: invalid account record %x", ErrCorruptedState, k)
			return false
		}

		var b uint256.Int
		b.SetBytes(v)
		l.setBalance(acc, &b)

		return true
	})
	if err != nil {
		return nil, err
	}

	if sum := l.circulating(); !sum.Eq(&l.totalSupply) {
		return nil, fmt.Errorf("%w: balances sum to %s, total supply is %s",
			ErrCorruptedState, sum.ToBig(), l.totalSupply.ToBig())
	}

	return l, nil
}

func accountKey(acc util.Uint160) []byte {
	return append([]byte{accPrefix}, acc.BytesBE()...)
}

func accountFromKey(k []byte) (util.Uint160, bool) {
	if len(k) != 1+util.Uint160Size || k[0] != accPrefix {
		return util.Uint160{}, false
	}

	acc, err := util.Uint160DecodeBytesBE(k[1:])
	if err != nil {
		return util.Uint160{}, false
	}

	return acc, true
}
