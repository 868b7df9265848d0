package tests

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/nspcc-dev/erc20-contract/common"
	"github.com/nspcc-dev/erc20-contract/internal/replay"
	"github.com/nspcc-dev/erc20-contract/rpc/erc20"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// tokenEnv is a chain with deployed token contract.
type tokenEnv struct {
	e    *neotest.Executor
	ctr  *neotest.Contract
	c    *neotest.ContractInvoker
	txs  []util.Uint256
	hash util.Uint160
}

func newToken(t *testing.T, data []any) *tokenEnv {
	e := newExecutor(t)
	ctr := compileToken(t, e)
	h := e.DeployContract(t, ctr, data)

	return &tokenEnv{
		e:    e,
		ctr:  ctr,
		c:    e.CommitteeInvoker(ctr.Hash),
		txs:  []util.Uint256{h},
		hash: ctr.Hash,
	}
}

// transfer invokes transfer on behalf of the signer and remembers the
// transaction for later replay.
func (x *tokenEnv) transfer(t *testing.T, signer neotest.Signer, from, to util.Uint160, amount int64, ok bool) util.Uint256 {
	h := x.c.WithSigners(signer).Invoke(t, ok, "transfer", from, to, amount)
	x.txs = append(x.txs, h)
	return h
}

func (x *tokenEnv) events(t *testing.T, h util.Uint256) []*erc20.TransferEvent {
	res := x.e.GetTxExecResult(t, h)

	evs, err := erc20.ContractTransferEvents(&result.ApplicationLog{
		Container:     h,
		IsTransaction: true,
		Executions:    []state.Execution{res.Execution},
	}, x.hash)
	require.NoError(t, err)

	return evs
}

func (x *tokenEnv) requireBalance(t *testing.T, acc util.Uint160, expected int64) {
	x.c.Invoke(t, expected, "balanceOf", acc)
}

func (x *tokenEnv) requireStored(t *testing.T, acc util.Uint160, stored bool) {
	cs := x.e.Chain.GetContractState(x.hash)
	require.NotNil(t, cs)

	item := x.e.Chain.GetStorageItem(cs.ID, append([]byte{'a'}, acc.BytesBE()...))
	if stored {
		require.NotNil(t, item)
	} else {
		require.Nil(t, item)
	}
}

func requireEvent(t *testing.T, ev *erc20.TransferEvent, from *util.Uint160, to util.Uint160, amount int64) {
	if from == nil {
		require.Nil(t, ev.From)
	} else {
		require.NotNil(t, ev.From)
		require.Equal(t, *from, *ev.From)
	}
	require.NotNil(t, ev.To)
	require.Equal(t, to, *ev.To)
	require.EqualValues(t, amount, ev.Amount.Int64())
}

// chainInvoker calls safe methods of the contract through test invocations.
type chainInvoker struct {
	t *testing.T
	c *neotest.ContractInvoker
}

func (x chainInvoker) Call(_ util.Uint160, operation string, params ...any) (*result.Invoke, error) {
	st, err := x.c.TestInvoke(x.t, operation, params...)
	if err != nil {
		return &result.Invoke{State: vmstate.Fault.String(), FaultException: err.Error()}, nil
	}
	return &result.Invoke{State: vmstate.Halt.String(), Stack: st.ToArray()}, nil
}

func TestERC20_Scenarios(t *testing.T) {
	e := newExecutor(t)
	a, b, c := e.NewAccount(t), e.NewAccount(t), e.NewAccount(t)
	aHash := a.ScriptHash()

	ctr := compileToken(t, e)
	deployTx := e.DeployContract(t, ctr, []any{int64(1000), aHash})

	token := &tokenEnv{e: e, ctr: ctr, c: e.CommitteeInvoker(ctr.Hash), hash: ctr.Hash}

	// construction
	token.c.Invoke(t, 1000, "totalSupply")
	token.requireBalance(t, aHash, 1000)
	evs := token.events(t, deployTx)
	require.Len(t, evs, 1)
	requireEvent(t, evs[0], nil, aHash, 1000)

	// ordinary transfer
	h := token.transfer(t, a, aHash, b.ScriptHash(), 300, true)
	token.requireBalance(t, aHash, 700)
	token.requireBalance(t, b.ScriptHash(), 300)
	evs = token.events(t, h)
	require.Len(t, evs, 1)
	requireEvent(t, evs[0], &aHash, b.ScriptHash(), 300)

	// insufficient funds
	h = token.transfer(t, b, b.ScriptHash(), c.ScriptHash(), 500, false)
	token.requireBalance(t, b.ScriptHash(), 300)
	token.requireBalance(t, c.ScriptHash(), 0)
	require.Empty(t, token.events(t, h))

	// self-transfer
	h = token.transfer(t, a, aHash, aHash, 50, true)
	token.requireBalance(t, aHash, 700)
	evs = token.events(t, h)
	require.Len(t, evs, 1)
	requireEvent(t, evs[0], &aHash, aHash, 50)

	token.c.Invoke(t, 1000, "totalSupply")
}

func TestERC20_Deploy(t *testing.T) {
	t.Run("default owner", func(t *testing.T) {
		token := newToken(t, []any{int64(500)})

		token.c.Invoke(t, 500, "totalSupply")
		token.requireBalance(t, token.c.CommitteeHash, 500)

		evs := token.events(t, token.txs[0])
		require.Len(t, evs, 1)
		requireEvent(t, evs[0], nil, token.c.CommitteeHash, 500)
	})

	t.Run("zero supply", func(t *testing.T) {
		e := newExecutor(t)
		owner := e.NewAccount(t)

		ctr := compileToken(t, e)
		e.DeployContract(t, ctr, []any{int64(0), owner.ScriptHash()})

		token := &tokenEnv{e: e, ctr: ctr, c: e.CommitteeInvoker(ctr.Hash), hash: ctr.Hash}
		token.c.Invoke(t, 0, "totalSupply")
		token.requireBalance(t, owner.ScriptHash(), 0)
		token.requireStored(t, owner.ScriptHash(), false)

		// zero-amount transfers are still allowed
		h := token.transfer(t, owner, owner.ScriptHash(), e.CommitteeHash, 0, true)
		require.Len(t, token.events(t, h), 1)
		token.transfer(t, owner, owner.ScriptHash(), e.CommitteeHash, 1, false)
	})

	t.Run("invalid data", func(t *testing.T) {
		e := newExecutor(t)
		ctr := compileToken(t, e)

		for _, tc := range []struct {
			data []any
			err  string
		}{
			{data: []any{}, err: "missing initial supply"},
			{data: []any{int64(-1)}, err: "negative initial supply"},
			{data: []any{int64(1), []byte{1, 2, 3}}, err: "invalid owner"},
		} {
			e.DeployContractCheckFAULT(t, ctr, tc.data, tc.err)
		}
	})
}

func TestERC20_Transfer(t *testing.T) {
	token := newToken(t, []any{int64(1000)})
	owner := token.c.CommitteeHash
	acc := token.e.NewAccount(t)

	t.Run("witness", func(t *testing.T) {
		token.c.WithSigners(acc).InvokeFail(t, common.ErrOwnerWitnessFailed, "transfer",
			owner, acc.ScriptHash(), 1)
		token.requireBalance(t, owner, 1000)
	})

	t.Run("negative amount", func(t *testing.T) {
		token.c.InvokeFail(t, "negative amount", "transfer", owner, acc.ScriptHash(), -1)
	})

	t.Run("invalid account", func(t *testing.T) {
		token.c.InvokeFail(t, "invalid account", "transfer", owner, []byte{1, 2, 3}, 1)
		token.c.InvokeFail(t, "invalid account", "balanceOf", []byte{1, 2, 3})
	})

	t.Run("whole balance", func(t *testing.T) {
		token.transfer(t, token.e.Committee, owner, acc.ScriptHash(), 1000, true)
		token.requireBalance(t, owner, 0)
		token.requireStored(t, owner, false)
		token.requireStored(t, acc.ScriptHash(), true)

		token.transfer(t, acc, acc.ScriptHash(), owner, 1000, true)
		token.requireStored(t, acc.ScriptHash(), false)
	})

	t.Run("unknown account", func(t *testing.T) {
		stranger := token.e.NewAccount(t)
		token.requireBalance(t, stranger.ScriptHash(), 0)
		token.transfer(t, stranger, stranger.ScriptHash(), owner, 1, false)
	})
}

func TestERC20_Update(t *testing.T) {
	token := newToken(t, []any{int64(1000)})

	token.c.Invoke(t, common.Version, "version")

	nefBytes, err := token.ctr.NEF.Bytes()
	require.NoError(t, err)
	manifestBytes, err := json.Marshal(token.ctr.Manifest)
	require.NoError(t, err)

	acc := token.e.NewAccount(t)
	token.c.WithSigners(acc).InvokeFail(t, common.ErrCommitteeWitnessFailed, "update",
		nefBytes, manifestBytes, nil)

	// same version can't be deployed twice
	token.c.InvokeFail(t, common.ErrAlreadyUpdated, "update", nefBytes, manifestBytes, nil)

	token.c.Invoke(t, 1000, "totalSupply")
}

func TestERC20_Replay(t *testing.T) {
	token := newToken(t, []any{int64(1000)})
	owner := token.c.CommitteeHash
	a, b := token.e.NewAccount(t), token.e.NewAccount(t)

	token.transfer(t, token.e.Committee, owner, a.ScriptHash(), 400, true)
	token.transfer(t, a, a.ScriptHash(), b.ScriptHash(), 150, true)
	token.transfer(t, b, b.ScriptHash(), b.ScriptHash(), 150, true)
	token.transfer(t, b, b.ScriptHash(), a.ScriptHash(), 151, false)
	token.transfer(t, b, b.ScriptHash(), owner, 150, true)

	r := replay.New(zaptest.NewLogger(t))
	for _, h := range token.txs {
		for _, ev := range token.events(t, h) {
			require.NoError(t, r.Apply(ev))
		}
	}

	rd := erc20.NewReader(chainInvoker{t: t, c: token.c}, token.hash)
	require.NoError(t, r.Verify(rd, a.ScriptHash(), b.ScriptHash()))

	supply, err := rd.TotalSupply()
	require.NoError(t, err)
	require.Zero(t, supply.Cmp(big.NewInt(1000)))
	require.EqualValues(t, 250, r.Ledger().BalanceOf(a.ScriptHash()).Uint64())
	require.True(t, r.Ledger().BalanceOf(b.ScriptHash()).IsZero())
}
