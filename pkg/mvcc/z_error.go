package mvcc

import "errors"

var ErrKeyNotFound = errors.New("key has never been created")
var ErrKeyExists = errors.New("key already exists")
