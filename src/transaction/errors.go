package transaction

import "errors"

var (
	// ErrNoLocalKey is returned when a transaction cannot be opened by any
	// local key.
	ErrNoLocalKey = errors.New("no local key can open the transaction")
	// ErrUnknownAffectedTransaction is returned when a new transaction
	// affects a contract transaction that is not stored.
	ErrUnknownAffectedTransaction = errors.New("affected contract transaction not found")
)
