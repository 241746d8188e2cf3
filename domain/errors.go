package domain

import "errors"

var (
	// ErrNotFound means a single-entity lookup matched no document.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID means a path or payload id is not a valid ObjectID hex.
	ErrInvalidID = errors.New("invalid id")
)
