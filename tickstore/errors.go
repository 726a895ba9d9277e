package tickstore

import "errors"

var (
	ErrClosed         = errors.New("store is closed")
	ErrReadOnly       = errors.New("store is read only")
	ErrEmpty          = errors.New("store is empty")
	ErrDuplicateTicks = errors.New("duplicate ticks")
	ErrOutOfRange     = errors.New("index out of range")
	ErrInvalidRange   = errors.New("invalid range")
	ErrUnsortedBatch  = errors.New("batch is not strictly ascending")
)
