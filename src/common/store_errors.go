package common

import "fmt"

// StoreErrType enumerates the failure classes returned by the transaction and
// staging stores.
type StoreErrType uint32

const (
	// KeyNotFound means no record exists under the requested key.
	KeyNotFound StoreErrType = iota
	// KeyAlreadyExists means a record already lives under the key.
	KeyAlreadyExists
	// Empty means the store holds no records at all.
	Empty
	// Closed means the store was used after Close.
	Closed
)

// StoreErr is the error returned by store implementations.
type StoreErr struct {
	dataType string
	errType  StoreErrType
	key      string
}

// NewStoreErr ...
func NewStoreErr(dataType string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		dataType: dataType,
		errType:  errType,
		key:      key,
	}
}

// Error ...
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case KeyAlreadyExists:
		m = "Key Already Exists"
	case Empty:
		m = "Empty"
	case Closed:
		m = "Closed"
	}

	return fmt.Sprintf("%s, %s, %s", e.dataType, e.key, m)
}

// IsStore checks that an error is of type StoreErr and that it's code matches
// the provided StoreErr code.
func IsStore(err error, t StoreErrType) bool {
	storeErr, ok := err.(StoreErr)
	return ok && storeErr.errType == t
}
