package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/volunteer-scheduler/internal/application"
	"github.com/example/volunteer-scheduler/internal/persistence"
)

// ServiceFactory assists tests with constructing application services over a
// shared store using deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Store       persistence.DocumentStore
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults. Unless
// overridden the store is a memory store drawing ids from the factory's
// generator.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Store == nil {
		factory.Store = NewMemoryStore(factory.IDGenerator)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithStore overrides the document store shared by the services.
func WithStore(store persistence.DocumentStore) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Store = store
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewDirectory builds a session directory over the factory store.
func (f *ServiceFactory) NewDirectory() *application.Directory {
	return application.NewDirectoryWithLogger(f.Store, f.Logger)
}

// NewLedger builds a booking ledger over the factory store. events may be nil.
func (f *ServiceFactory) NewLedger(events application.BookingEvents) *application.Ledger {
	return application.NewLedgerWithLogger(f.Store, events, f.Clock.NowFunc(), f.Logger)
}

// NewController builds a controller acting as principal. A zero principal
// acts unauthenticated.
func (f *ServiceFactory) NewController(principal application.Principal) *application.Controller {
	return application.NewControllerWithLogger(
		f.NewDirectory(),
		f.NewLedger(nil),
		application.FixedPrincipal(principal),
		f.Logger,
	)
}

// NewCatalog builds a session catalog over the factory store.
func (f *ServiceFactory) NewCatalog() *application.Catalog {
	return application.NewCatalogWithLogger(f.Store, f.Logger)
}

// NewAuthService builds an auth service with fast, deterministic password
// handling so tests do not pay for argon2id.
func (f *ServiceFactory) NewAuthService(secret string, ttl time.Duration) *application.AuthService {
	return application.NewAuthServiceWithLogger(
		f.Store,
		[]byte(secret),
		ttl,
		PlainPasswordHasher,
		PlainPasswordVerifier,
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// PlainPasswordHasher stores passwords with a marker prefix. Tests only.
func PlainPasswordHasher(password string) (string, error) {
	return "plain:" + password, nil
}

// PlainPasswordVerifier checks hashes made by PlainPasswordHasher.
func PlainPasswordVerifier(hash, password string) error {
	if hash != "plain:"+password {
		return application.ErrInvalidCredentials
	}
	return nil
}
