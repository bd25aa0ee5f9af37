package repository

import "errors"

// ErrNotFound is returned when no booking matches a well-formed identifier.
var ErrNotFound = errors.New("booking not found")
