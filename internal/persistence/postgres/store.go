// Package postgres implements the document store on PostgreSQL through sqlx
// and the pgx stdlib driver. Bodies are stored as JSONB and predicates are
// pushed down as body->>field comparisons.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/example/volunteer-scheduler/internal/persistence"
	"github.com/example/volunteer-scheduler/internal/persistence/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const uniqueViolation = "23505"

// Store persists documents in PostgreSQL.
type Store struct {
	db          *sqlx.DB
	idGenerator func() string
	now         func() time.Time
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: dsn cannot be empty")
	}
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return New(db), nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, idGenerator: uuid.NewString, now: time.Now}
}

// WithClock overrides identifier and timestamp sources.
func (s *Store) WithClock(idGenerator func() string, now func() time.Time) *Store {
	if idGenerator != nil {
		s.idGenerator = idGenerator
	}
	if now != nil {
		s.now = now
	}
	return s
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies pending schema migrations and returns how many ran.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) (int, error) {
	runner, err := migration.NewRunner(s.db, migrationFiles, "migrations", logger)
	if err != nil {
		return 0, err
	}
	return runner.Run(ctx)
}

var _ persistence.DocumentStore = (*Store)(nil)

type row struct {
	ID   string `db:"id"`
	Body []byte `db:"body"`
}

// List returns all documents of a collection ordered by insertion.
func (s *Store) List(ctx context.Context, collection string) ([]persistence.Document, error) {
	return s.Query(ctx, collection)
}

// Query returns documents whose fields equal every predicate.
func (s *Store) Query(ctx context.Context, collection string, where ...persistence.Predicate) ([]persistence.Document, error) {
	if !persistence.KnownCollection(collection) {
		return nil, fmt.Errorf("postgres: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	query, args := buildQuery(collection, where)
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w", collection, mapError(err))
	}

	docs := make([]persistence.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := decode(r)
		if err != nil {
			return nil, fmt.Errorf("postgres: document %s/%s: %w", collection, r.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get returns a document by identifier.
func (s *Store) Get(ctx context.Context, collection, id string) (persistence.Document, error) {
	if !persistence.KnownCollection(collection) {
		return persistence.Document{}, fmt.Errorf("postgres: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	var r row
	query := s.db.Rebind(`SELECT id, body FROM documents WHERE collection = ? AND id = ?`)
	if err := s.db.GetContext(ctx, &r, query, collection, id); err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return persistence.Document{}, persistence.ErrNotFound
		}
		return persistence.Document{}, fmt.Errorf("postgres: get %s/%s: %w", collection, id, mapped)
	}
	return decode(r)
}

// Insert stores fields under a generated identifier.
func (s *Store) Insert(ctx context.Context, collection string, fields persistence.Fields) (string, error) {
	if !persistence.KnownCollection(collection) {
		return "", fmt.Errorf("postgres: %w: %s", persistence.ErrUnknownCollection, collection)
	}
	if fields == nil {
		fields = persistence.Fields{}
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("postgres: encode body: %w", err)
	}

	id := s.idGenerator()
	if id == "" {
		return "", fmt.Errorf("postgres: %w: empty document id", persistence.ErrConstraintViolation)
	}

	query := s.db.Rebind(`INSERT INTO documents (collection, id, body, created_at) VALUES (?, ?, ?::jsonb, ?)`)
	if _, err := s.db.ExecContext(ctx, query, collection, id, string(body), s.now().UTC()); err != nil {
		return "", fmt.Errorf("postgres: insert %s: %w", collection, mapError(err))
	}
	return id, nil
}

// DeleteByID removes a document, returning ErrNotFound when nothing matched.
func (s *Store) DeleteByID(ctx context.Context, collection, id string) error {
	if !persistence.KnownCollection(collection) {
		return fmt.Errorf("postgres: %w: %s", persistence.ErrUnknownCollection, collection)
	}

	query := s.db.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`)
	result, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("postgres: delete %s/%s: %w", collection, id, mapError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: delete %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// buildQuery renders a select with one body->>field clause per predicate.
// Placeholders are written as ? and rebound by the caller.
func buildQuery(collection string, where []persistence.Predicate) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, 1+2*len(where))

	b.WriteString(`SELECT id, body FROM documents WHERE collection = ?`)
	args = append(args, collection)
	for _, p := range where {
		b.WriteString(` AND body->>?::text = ?`)
		args = append(args, p.Field, p.Value)
	}
	b.WriteString(` ORDER BY seq`)
	return b.String(), args
}

func decode(r row) (persistence.Document, error) {
	fields := persistence.Fields{}
	if len(r.Body) > 0 {
		if err := json.Unmarshal(r.Body, &fields); err != nil {
			return persistence.Document{}, fmt.Errorf("decode body: %w", err)
		}
	}
	return persistence.Document{ID: r.ID, Fields: fields}, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", persistence.ErrConstraintViolation, pgErr.Message)
	}
	return err
}
