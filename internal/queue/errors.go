package queue

import "errors"

var (
	// ErrDuplicateID is returned by Add when the id already exists.
	// Enqueue never reuses ids, so hitting this means a producer bug.
	ErrDuplicateID = errors.New("upload id already exists")

	// ErrUnknownType is returned for upload types outside the closed set.
	ErrUnknownType = errors.New("unknown upload type")

	// ErrNotFound is returned when a mutation targets a missing record.
	ErrNotFound = errors.New("pending upload not found")
)
