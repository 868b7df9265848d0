package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
)

var (
	// ErrOwnerWitnessFailed appears when the method must be called
	// by an owner of some assets but was not.
	ErrOwnerWitnessFailed = "owner witness check failed"
	// ErrCommitteeWitnessFailed appears when the method must be called
	// by the chain committee but was not.
	ErrCommitteeWitnessFailed = "committee witness check failed"
)

// CheckOwnerWitness checks that the owner of the account has witnessed the
// invocation either by signing the transaction or by being the contract
// calling the current one. It panics with ErrOwnerWitnessFailed message on fail.
func CheckOwnerWitness(owner interop.Hash160) {
	if runtime.CheckWitness(owner) {
		return
	}

	if runtime.GetCallingScriptHash().Equals(owner) {
		return
	}

	panic(ErrOwnerWitnessFailed)
}
