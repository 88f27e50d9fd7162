package application

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/volunteer-scheduler/internal/persistence"
)

// Directory loads sessions and projects them onto the calendar.
type Directory struct {
	store  persistence.DocumentStore
	logger *slog.Logger
}

// NewDirectory constructs a Directory over the shared document store.
func NewDirectory(store persistence.DocumentStore) *Directory {
	return NewDirectoryWithLogger(store, nil)
}

// NewDirectoryWithLogger constructs a Directory with a specified logger.
func NewDirectoryWithLogger(store persistence.DocumentStore, logger *slog.Logger) *Directory {
	return &Directory{store: store, logger: defaultLogger(logger)}
}

// LoadAll fetches every session and folds them, in fetch order, into a
// date-keyed marker index. A later session on an already indexed date
// replaces the earlier one. On failure the returned index is empty.
func (d *Directory) LoadAll(ctx context.Context) (index MarkerIndex, err error) {
	if d == nil || d.store == nil {
		return MarkerIndex{}, fmt.Errorf("session directory not configured")
	}

	ctx, span := startSpan(ctx, "Directory.LoadAll")
	logger := serviceLogger(ctx, d.logger, "Directory", "LoadAll")
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "load sessions failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "sessions loaded", "dates", len(index))
	}()

	docs, err := d.store.List(ctx, persistence.CollectionSessions)
	if err != nil {
		return MarkerIndex{}, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]Session, 0, len(docs))
	for _, doc := range docs {
		sessions = append(sessions, sessionFromDocument(doc))
	}
	index = BuildMarkerIndex(sessions)
	span.SetAttributes(attribute.Int("sessions.count", len(sessions)), attribute.Int("markers.count", len(index)))
	return index, nil
}

// BuildMarkerIndex folds sessions into markers with last-write-wins on dates.
func BuildMarkerIndex(sessions []Session) MarkerIndex {
	index := make(MarkerIndex, len(sessions))
	for _, s := range sessions {
		index[s.Date] = Marker{
			SessionType: s.Type,
			Color:       ColorFor(s.Type),
			Session:     s,
		}
	}
	return index
}
