package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a vault whose name is taken.
	ErrAlreadyExists = errors.New("already exists")
)
