package application

import (
	"context"
	"errors"
	"sync"

	"github.com/example/volunteer-scheduler/internal/persistence"
	"github.com/example/volunteer-scheduler/internal/persistence/memory"
)

var errStoreDown = errors.New("store unavailable")

// storeStub wraps a memory store and lets tests fail or count calls per operation.
type storeStub struct {
	*memory.Store

	mu         sync.Mutex
	calls      map[string]int
	failList   error
	failQuery  error
	failGet    error
	failInsert error
	failDelete error
}

func newStoreStub() *storeStub {
	return &storeStub{Store: memory.New(), calls: make(map[string]int)}
}

func (s *storeStub) record(op string) {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
}

func (s *storeStub) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *storeStub) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *storeStub) List(ctx context.Context, collection string) ([]persistence.Document, error) {
	s.record("List")
	if s.failList != nil {
		return nil, s.failList
	}
	return s.Store.List(ctx, collection)
}

func (s *storeStub) Query(ctx context.Context, collection string, where ...persistence.Predicate) ([]persistence.Document, error) {
	s.record("Query")
	if s.failQuery != nil {
		return nil, s.failQuery
	}
	return s.Store.Query(ctx, collection, where...)
}

func (s *storeStub) Get(ctx context.Context, collection, id string) (persistence.Document, error) {
	s.record("Get")
	if s.failGet != nil {
		return persistence.Document{}, s.failGet
	}
	return s.Store.Get(ctx, collection, id)
}

func (s *storeStub) Insert(ctx context.Context, collection string, fields persistence.Fields) (string, error) {
	s.record("Insert")
	if s.failInsert != nil {
		return "", s.failInsert
	}
	return s.Store.Insert(ctx, collection, fields)
}

func (s *storeStub) DeleteByID(ctx context.Context, collection, id string) error {
	s.record("DeleteByID")
	if s.failDelete != nil {
		return s.failDelete
	}
	return s.Store.DeleteByID(ctx, collection, id)
}

func (s *storeStub) seedSession(date string, sessionType SessionType) string {
	id, err := s.Store.Insert(context.Background(), persistence.CollectionSessions, sessionFields(Session{Date: date, Type: sessionType}))
	if err != nil {
		panic(err)
	}
	return id
}

func (s *storeStub) resetCalls() {
	s.mu.Lock()
	s.calls = make(map[string]int)
	s.mu.Unlock()
}

// eventsStub records published booking events.
type eventsStub struct {
	mu        sync.Mutex
	created   []Booking
	cancelled []Booking
	err       error
}

func (e *eventsStub) BookingCreated(_ context.Context, b Booking) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created = append(e.created, b)
	return e.err
}

func (e *eventsStub) BookingCancelled(_ context.Context, b Booking) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = append(e.cancelled, b)
	return e.err
}
