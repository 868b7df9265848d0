package erc20

import (
	"errors"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/stretchr/testify/require"
)

type testInvoker struct {
	contract  util.Uint160
	operation string
	params    []any

	res *result.Invoke
	err error
}

func (x *testInvoker) Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error) {
	x.contract, x.operation, x.params = contract, operation, params
	return x.res, x.err
}

func haltResult(items ...stackitem.Item) *result.Invoke {
	return &result.Invoke{
		State: vmstate.Halt.String(),
		Stack: items,
	}
}

func transferItem(from, to stackitem.Item, amount int64) *stackitem.Array {
	return stackitem.NewArray([]stackitem.Item{from, to, stackitem.Make(amount)})
}

func TestContractReader(t *testing.T) {
	var (
		hash = util.Uint160{1, 2, 3}
		acc  = util.Uint160{4, 5, 6}
		inv  = &testInvoker{res: haltResult(stackitem.Make(1000))}
		r    = NewReader(inv, hash)
	)

	supply, err := r.TotalSupply()
	require.NoError(t, err)
	require.EqualValues(t, 1000, supply.Int64())
	require.Equal(t, hash, inv.contract)
	require.Equal(t, "totalSupply", inv.operation)

	inv.res = haltResult(stackitem.Make(42))
	balance, err := r.BalanceOf(acc)
	require.NoError(t, err)
	require.EqualValues(t, 42, balance.Int64())
	require.Equal(t, "balanceOf", inv.operation)
	require.Equal(t, []any{acc}, inv.params)

	inv.res = &result.Invoke{State: vmstate.Fault.String(), FaultException: "invalid account"}
	_, err = r.BalanceOf(acc)
	require.Error(t, err)

	inv.res, inv.err = nil, errors.New("any error")
	_, err = r.Version()
	require.Error(t, err)
}

func TestTransferEvent_FromStackItem(t *testing.T) {
	var (
		from = util.Uint160{1}
		to   = util.Uint160{2}
		e    TransferEvent
	)

	require.NoError(t, e.FromStackItem(transferItem(
		stackitem.NewByteArray(from.BytesBE()), stackitem.NewByteArray(to.BytesBE()), 300)))
	require.Equal(t, &from, e.From)
	require.Equal(t, &to, e.To)
	require.EqualValues(t, 300, e.Amount.Int64())

	// genesis
	require.NoError(t, e.FromStackItem(transferItem(
		stackitem.Null{}, stackitem.NewByteArray(to.BytesBE()), 1000)))
	require.Nil(t, e.From)
	require.Equal(t, &to, e.To)

	require.Error(t, e.FromStackItem(nil))
	require.Error(t, e.FromStackItem(stackitem.NewArray([]stackitem.Item{stackitem.Null{}})))
	require.Error(t, e.FromStackItem(transferItem(
		stackitem.NewByteArray([]byte{1, 2}), stackitem.NewByteArray(to.BytesBE()), 1)))

	tooLong := transferItem(stackitem.NewByteArray(from.BytesBE()), stackitem.NewByteArray(to.BytesBE()), 0)
	tooLong.Append(stackitem.Null{})
	require.Error(t, e.FromStackItem(tooLong))
}

func TestContractTransferEvents(t *testing.T) {
	var (
		contract = util.Uint160{0xee}
		foreign  = util.Uint160{0xff}
		from     = util.Uint160{1}
		to       = util.Uint160{2}
		item     = transferItem(stackitem.NewByteArray(from.BytesBE()), stackitem.NewByteArray(to.BytesBE()), 7)
	)

	_, err := ContractTransferEvents(nil, contract)
	require.Error(t, err)

	log := &result.ApplicationLog{
		Executions: []state.Execution{
			{
				VMState: vmstate.Halt,
				Events: []state.NotificationEvent{
					{ScriptHash: contract, Name: TransferEventName, Item: item},
					{ScriptHash: foreign, Name: TransferEventName, Item: item},
					{ScriptHash: contract, Name: "Other", Item: stackitem.NewArray(nil)},
				},
			},
			{
				VMState: vmstate.Fault,
				Events: []state.NotificationEvent{
					{ScriptHash: contract, Name: TransferEventName, Item: item},
				},
			},
		},
	}

	res, err := ContractTransferEvents(log, contract)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, &from, res[0].From)
	require.EqualValues(t, 7, res[0].Amount.Int64())

	all, err := TransferEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, all, 3)

	log.Executions[0].Events[0].Item = stackitem.NewArray(nil)
	_, err = ContractTransferEvents(log, contract)
	require.Error(t, err)
}
