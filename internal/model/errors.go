package model

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateKey     = errors.New("duplicate natural key")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrMissingReference = errors.New("missing reference")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsFatal reports whether err should stop an import instead of being counted
// against a single record: the store is gone or the run was cancelled.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
