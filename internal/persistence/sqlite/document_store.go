// Package sqlite implements the document store on an embedded SQLite database.
//
// Bodies are stored as deterministic CBOR. Equality predicates are evaluated
// after decoding so every field stays queryable without per-field columns.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/volunteer-scheduler/internal/codec"
	"github.com/example/volunteer-scheduler/internal/persistence"
)

// DocumentStore persists documents in the documents table.
type DocumentStore struct {
	pool        *ConnectionPool
	idGenerator func() string
	now         func() time.Time
}

// NewDocumentStore returns a store on an already migrated pool.
func NewDocumentStore(pool *ConnectionPool) *DocumentStore {
	return NewDocumentStoreWithClock(pool, uuid.NewString, time.Now)
}

// NewDocumentStoreWithClock allows tests to control identifiers and timestamps.
func NewDocumentStoreWithClock(pool *ConnectionPool, idGenerator func() string, now func() time.Time) *DocumentStore {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &DocumentStore{pool: pool, idGenerator: idGenerator, now: now}
}

var _ persistence.DocumentStore = (*DocumentStore)(nil)

// List returns all documents of a collection ordered by insertion.
func (s *DocumentStore) List(ctx context.Context, collection string) ([]persistence.Document, error) {
	return s.Query(ctx, collection)
}

// Query returns documents whose fields equal every predicate.
func (s *DocumentStore) Query(ctx context.Context, collection string, where ...persistence.Predicate) ([]persistence.Document, error) {
	if !persistence.KnownCollection(collection) {
		return nil, fmt.Errorf("sqlite: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	rows, err := s.pool.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = ? ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query %s: %w", collection, mapError(err))
	}
	defer rows.Close()

	docs := make([]persistence.Document, 0)
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", collection, err)
		}
		fields, err := codec.DecodeFields(body)
		if err != nil {
			return nil, fmt.Errorf("sqlite: document %s/%s: %w", collection, id, err)
		}
		if !persistence.Matches(fields, where) {
			continue
		}
		docs = append(docs, persistence.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate %s: %w", collection, err)
	}
	return docs, nil
}

// Get returns a document by identifier.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (persistence.Document, error) {
	if !persistence.KnownCollection(collection) {
		return persistence.Document{}, fmt.Errorf("sqlite: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	var body []byte
	err := s.pool.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&body)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return persistence.Document{}, persistence.ErrNotFound
		}
		return persistence.Document{}, fmt.Errorf("sqlite: get %s/%s: %w", collection, id, mapped)
	}

	fields, err := codec.DecodeFields(body)
	if err != nil {
		return persistence.Document{}, fmt.Errorf("sqlite: document %s/%s: %w", collection, id, err)
	}
	return persistence.Document{ID: id, Fields: fields}, nil
}

// Insert stores fields under a generated identifier.
func (s *DocumentStore) Insert(ctx context.Context, collection string, fields persistence.Fields) (string, error) {
	if !persistence.KnownCollection(collection) {
		return "", fmt.Errorf("sqlite: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	body, err := codec.EncodeFields(fields)
	if err != nil {
		return "", fmt.Errorf("sqlite: %w", err)
	}

	id := s.idGenerator()
	if id == "" {
		return "", fmt.Errorf("sqlite: %w: empty document id", persistence.ErrConstraintViolation)
	}

	err = s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, body, created_at) VALUES (?, ?, ?, ?)`,
			collection, id, body, s.now().UTC().Format(time.RFC3339Nano))
		return mapError(err)
	})
	if err != nil {
		return "", fmt.Errorf("sqlite: insert %s: %w", collection, err)
	}
	return id, nil
}

// DeleteByID removes a document, returning ErrNotFound when nothing matched.
func (s *DocumentStore) DeleteByID(ctx context.Context, collection, id string) error {
	if !persistence.KnownCollection(collection) {
		return fmt.Errorf("sqlite: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	result, err := s.pool.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete %s/%s: %w", collection, id, mapError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
