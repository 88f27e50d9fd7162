// Package memory provides an in-process DocumentStore used by tests and by
// the memory store mode of the service.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/example/volunteer-scheduler/internal/persistence"
)

// Store keeps documents per collection in insertion order.
type Store struct {
	mu          sync.RWMutex
	idGenerator func() string
	collections map[string][]persistence.Document
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the identifier source for inserted documents.
func WithIDGenerator(generator func() string) Option {
	return func(s *Store) {
		if generator != nil {
			s.idGenerator = generator
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		idGenerator: uuid.NewString,
		collections: make(map[string][]persistence.Document),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every document of the collection.
func (s *Store) List(ctx context.Context, collection string) ([]persistence.Document, error) {
	return s.Query(ctx, collection)
}

// Query returns documents matching all predicates.
func (s *Store) Query(ctx context.Context, collection string, where ...persistence.Predicate) ([]persistence.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !persistence.KnownCollection(collection) {
		return nil, fmt.Errorf("memory: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	out := make([]persistence.Document, 0, len(docs))
	for _, doc := range docs {
		if !persistence.Matches(doc.Fields, where) {
			continue
		}
		out = append(out, cloneDocument(doc))
	}
	return out, nil
}

// Get returns a single document by identifier.
func (s *Store) Get(ctx context.Context, collection, id string) (persistence.Document, error) {
	if err := ctx.Err(); err != nil {
		return persistence.Document{}, err
	}
	if !persistence.KnownCollection(collection) {
		return persistence.Document{}, fmt.Errorf("memory: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.collections[collection] {
		if doc.ID == id {
			return cloneDocument(doc), nil
		}
	}
	return persistence.Document{}, persistence.ErrNotFound
}

// Insert stores a new document and returns its generated identifier.
func (s *Store) Insert(ctx context.Context, collection string, fields persistence.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !persistence.KnownCollection(collection) {
		return "", fmt.Errorf("memory: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.idGenerator()
	if id == "" {
		return "", fmt.Errorf("memory: %w: empty document id", persistence.ErrConstraintViolation)
	}
	for _, doc := range s.collections[collection] {
		if doc.ID == id {
			return "", fmt.Errorf("memory: %w: document %s already exists", persistence.ErrConstraintViolation, id)
		}
	}

	s.collections[collection] = append(s.collections[collection], persistence.Document{ID: id, Fields: fields.Clone()})
	return id, nil
}

// DeleteByID removes a document.
func (s *Store) DeleteByID(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !persistence.KnownCollection(collection) {
		return fmt.Errorf("memory: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		if doc.ID != id {
			continue
		}
		s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
		return nil
	}
	return persistence.ErrNotFound
}

// Len reports how many documents a collection holds.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func cloneDocument(doc persistence.Document) persistence.Document {
	return persistence.Document{ID: doc.ID, Fields: doc.Fields.Clone()}
}
