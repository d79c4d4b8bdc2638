package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique field (email) is already taken.
var ErrDuplicate = errors.New("duplicate")
