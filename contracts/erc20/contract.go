package erc20

import (
	"github.com/nspcc-dev/erc20-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	supplyKey = 's'
	accPrefix = 'a'
)

// nolint:unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.([]any)
	if len(args) == 0 {
		panic("missing initial supply")
	}

	supply := args[0].(int)
	if supply < 0 {
		panic("negative initial supply")
	}

	var owner interop.Hash160
	if len(args) > 1 && args[1] != nil {
		owner = args[1].(interop.Hash160)
	} else {
		owner = runtime.GetScriptContainer().Sender
	}

	if len(owner) != interop.Hash160Len {
		panic("invalid owner")
	}

	ctx := storage.GetContext()
	storage.Put(ctx, supplyKey, supply)
	putBalance(ctx, owner, supply)

	// genesis: there is no previous holder of the supply
	var noHolder interop.Hash160
	runtime.Notify("Transfer", noHolder, owner, supply)

	runtime.Log("erc20 contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(nefFile, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic(common.ErrCommitteeWitnessFailed)
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("erc20 contract updated")
}

// TotalSupply returns the amount of tokens fixed at deployment.
func TotalSupply() int {
	ctx := storage.GetReadOnlyContext()
	supply := storage.Get(ctx, supplyKey)
	if supply == nil {
		return 0
	}

	return supply.(int)
}

// BalanceOf returns balance of the specified account. Accounts that have
// never received tokens have zero balance.
func BalanceOf(account interop.Hash160) int {
	if len(account) != interop.Hash160Len {
		panic("invalid account")
	}

	ctx := storage.GetReadOnlyContext()
	return balanceOf(ctx, account)
}

// Transfer moves amount of tokens from one account to another. It can be
// invoked only by the owner of the `from` account. Returns false if `from`
// does not hold enough tokens, nothing is changed then.
//
// It produces Transfer notification on success, including zero-amount
// transfers and transfers to itself.
func Transfer(from, to interop.Hash160, amount int) bool {
	if len(from) != interop.Hash160Len || len(to) != interop.Hash160Len {
		panic("invalid account")
	}

	if amount < 0 {
		panic("negative amount")
	}

	common.CheckOwnerWitness(from)

	ctx := storage.GetContext()
	return transfer(ctx, from, to, amount)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func transfer(ctx storage.Context, from, to interop.Hash160, amount int) bool {
	fromBalance := balanceOf(ctx, from)
	if fromBalance < amount {
		runtime.Log("not enough assets")
		return false
	}

	putBalance(ctx, from, fromBalance-amount)

	// read after the debit: from and to may be the same account
	putBalance(ctx, to, balanceOf(ctx, to)+amount)

	runtime.Notify("Transfer", from, to, amount)

	return true
}

func balanceOf(ctx storage.Context, account interop.Hash160) int {
	balance := storage.Get(ctx, append([]byte{accPrefix}, account...))
	if balance == nil {
		return 0
	}

	return balance.(int)
}

func putBalance(ctx storage.Context, account interop.Hash160, balance int) {
	key := append([]byte{accPrefix}, account...)
	if balance == 0 {
		storage.Delete(ctx, key)
		return
	}

	storage.Put(ctx, key, balance)
}
