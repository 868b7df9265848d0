/*
Package erc20 implements a fungible token contract with a fixed supply.

The whole supply is allocated at deployment to a single owner account and
then only moves between accounts with Transfer. There is no minting, burning
or allowance mechanism, so the sum of all balances always equals the total
supply.

# Deployment

Deployment data is an array of one or two elements:

	[initialSupply, owner]

initialSupply is a non-negative integer. owner is an optional Hash160 of the
account receiving the supply; if it is omitted or null, the sender of the
deployment transaction becomes the owner. A zero supply is valid.

# Contract notifications

Transfer notification. It is produced on deployment (with null `from`) and on
every successful transfer, including zero-amount transfers and transfers to
the sender itself.

	Transfer:
	  - name: from
	    type: Hash160
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
*/
package erc20

/*
Contract storage model.

# Summary
Key-value storage format:
  - 's' -> int
    total supply set at deployment
  - a<interop.Hash160> -> int
    balance of the account, accounts with zero balance have no record
*/
