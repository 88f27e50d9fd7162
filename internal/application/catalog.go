package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/volunteer-scheduler/internal/persistence"
)

// Catalog manages session records for administrators.
type Catalog struct {
	store  persistence.DocumentStore
	logger *slog.Logger
}

// NewCatalog constructs a Catalog.
func NewCatalog(store persistence.DocumentStore) *Catalog {
	return NewCatalogWithLogger(store, nil)
}

// NewCatalogWithLogger constructs a Catalog with a specified logger.
func NewCatalogWithLogger(store persistence.DocumentStore, logger *slog.Logger) *Catalog {
	return &Catalog{store: store, logger: defaultLogger(logger)}
}

// AddSession validates input and stores a new session.
func (c *Catalog) AddSession(ctx context.Context, input SessionInput) (session Session, err error) {
	if c == nil || c.store == nil {
		return Session{}, fmt.Errorf("session catalog not configured")
	}

	input.Date = strings.TrimSpace(input.Date)
	input.Type = SessionType(strings.ToUpper(strings.TrimSpace(string(input.Type))))
	input.Description = strings.TrimSpace(input.Description)

	logger := serviceLogger(ctx, c.logger, "Catalog", "AddSession", "date", input.Date, "session_type", string(input.Type))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "add session failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session added", "session_id", session.ID)
	}()

	if err = Validate(input); err != nil {
		return Session{}, err
	}

	session = Session{Date: input.Date, Type: input.Type, Description: input.Description}
	id, err := c.store.Insert(ctx, persistence.CollectionSessions, sessionFields(session))
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	session.ID = id
	return session, nil
}

// ListSessions returns every stored session in insertion order.
func (c *Catalog) ListSessions(ctx context.Context) ([]Session, error) {
	if c == nil || c.store == nil {
		return nil, fmt.Errorf("session catalog not configured")
	}
	docs, err := c.store.List(ctx, persistence.CollectionSessions)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]Session, 0, len(docs))
	for _, doc := range docs {
		sessions = append(sessions, sessionFromDocument(doc))
	}
	return sessions, nil
}
