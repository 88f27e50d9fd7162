package persistence

import "context"

// DocumentStore is the shared store behind sessions, bookings, and user profiles.
//
// List and Query return documents in insertion order. Callers rely on that
// order when folding sessions into the calendar index.
type DocumentStore interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, collection string, where ...Predicate) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Insert(ctx context.Context, collection string, fields Fields) (string, error)
	DeleteByID(ctx context.Context, collection, id string) error
}
