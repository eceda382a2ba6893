package store

import (
	"errors"
)

var (
	ErrInvalidName    = errors.New("invalid table name")
	ErrTableNotFound  = errors.New("table not found")
	ErrEmptyInput     = errors.New("no rows supplied")
	ErrInvalidRow     = errors.New("invalid row")
	ErrHeaderMismatch = errors.New("header does not match existing table")
	ErrStorage        = errors.New("storage error")
)
