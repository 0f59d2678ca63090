package civiccompass

import "github.com/kailas-cloud/civiccompass/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrIndexUnavailable = domain.ErrIndexUnavailable
	ErrSessionNotLoaded = domain.ErrSessionNotLoaded
	ErrChunkNotFound    = domain.ErrChunkNotFound
	ErrRecordNotFound   = domain.ErrRecordNotFound
	ErrInvalidQuery     = domain.ErrInvalidQuery
)
