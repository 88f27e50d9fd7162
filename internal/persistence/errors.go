package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrUnknownCollection is returned when a collection name is not one the service stores.
	ErrUnknownCollection = errors.New("persistence: unknown collection")
	// ErrConstraintViolation is returned when a document fails a storage level constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
