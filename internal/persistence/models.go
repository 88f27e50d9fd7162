package persistence

// Collection names shared by every store implementation.
const (
	CollectionSessions = "sessions"
	CollectionBookings = "bookings"
	CollectionUsers    = "users"
)

// Fields holds the persisted attributes of a document. Values are stored as
// strings so every backend can compare them for equality without type coercion.
type Fields map[string]string

// Clone returns an independent copy of the fields.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Document is a stored record together with its store-assigned identifier.
type Document struct {
	ID     string
	Fields Fields
}

// Get returns the value stored under key, or the empty string.
func (d Document) Get(key string) string {
	if d.Fields == nil {
		return ""
	}
	return d.Fields[key]
}

// Predicate is an equality filter on a single field.
type Predicate struct {
	Field string
	Value string
}

// Eq builds a predicate matching documents whose field equals value.
func Eq(field, value string) Predicate {
	return Predicate{Field: field, Value: value}
}

// Matches reports whether every predicate holds for the fields.
func Matches(fields Fields, where []Predicate) bool {
	for _, p := range where {
		got, ok := fields[p.Field]
		if !ok || got != p.Value {
			return false
		}
	}
	return true
}

// KnownCollection reports whether name is one of the service collections.
func KnownCollection(name string) bool {
	switch name {
	case CollectionSessions, CollectionBookings, CollectionUsers:
		return true
	}
	return false
}
