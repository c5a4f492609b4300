package models

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when an insert hits a uniqueness constraint.
// The video store raises it for a second video on the same deployment, which
// callers treat as "already exists", not as a failure.
var ErrAlreadyExists = errors.New("record already exists")
