package health

import "context"

// CachePinger checks shared cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// SessionInspector reports whether a session is active and how many records it holds.
type SessionInspector interface {
	Loaded() (records int, ok bool)
}
