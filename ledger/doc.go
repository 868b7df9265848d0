/*
Package ledger implements fixed-supply fungible token accounting off chain.

It mirrors the state machine of the erc20 contract: the whole supply is
allocated to the owner at construction, and Processor moves balances between
accounts publishing a Notification per change. Ledger instances are safe for
concurrent use: every transfer runs under an exclusive lock, including
publishing of its notification.

State may be saved into and restored from any neo-go storage.Store, see Save
and Load.
*/
package ledger
