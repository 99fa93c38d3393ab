package txn

import "errors"

var ErrDBClosed = errors.New("db is stopped, can not perform the operation")
var ErrInvalidState = errors.New("txn is not in the required state for the operation")
var ErrCapacityExceeded = errors.New("txn write buffer is full")
var ErrEmptyKey = errors.New("key is empty")
var ErrTxnConflict = errors.New("txn has conflict, can not commit")
