package storage

import "errors"

// ErrNotFound is returned when a delete or rename targets a row that does
// not exist.
var ErrNotFound = errors.New("not found")
