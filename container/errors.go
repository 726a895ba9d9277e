package container

import "errors"

var (
	ErrClosed         = errors.New("container is closed")
	ErrReadOnly       = errors.New("container is read only")
	ErrCorrupted      = errors.New("dataset is corrupted")
	ErrNotFound       = errors.New("dataset not found")
	ErrInvalidAddress = errors.New("invalid dataset address")
	ErrOutOfRange     = errors.New("record out of range")
)
