package database

import "errors"

var (
	ErrInvalidPath  = errors.New("database: invalid path")
	ErrShallowWrite = errors.New("database: writes need at least collection/id")
	ErrConflict     = errors.New("database: too many concurrent updates")
	ErrUnknownStore = errors.New("database: unknown store driver")
)
