package repositories

import "errors"

// Sentinel errors returned by repositories. Callers match with errors.Is
// and map them to HTTP status codes at the handler layer.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
)
