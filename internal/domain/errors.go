package domain

import (
	"errors"
	"fmt"
)

// KeyPrefix namespaces every key written to the shared KV store.
const KeyPrefix = "civiccompass:"

var (
	// ErrIndexUnavailable signals that the corpus index could not be loaded (search is impossible).
	ErrIndexUnavailable = errors.New("corpus index unavailable")
	// ErrSessionNotLoaded signals a query issued before the first successful load.
	ErrSessionNotLoaded = errors.New("session not loaded")
	// ErrChunkNotFound signals a missing or unreadable chunk file.
	ErrChunkNotFound = errors.New("chunk not found")
	// ErrRecordNotFound signals a missing record (anchor lookup or chunk offset).
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidQuery signals malformed search parameters.
	ErrInvalidQuery = errors.New("invalid query")
)

// ChunkError wraps ErrChunkNotFound with the normalized chunk path.
type ChunkError struct {
	Path string
	Err  error
}

func (e *ChunkError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrChunkNotFound.Error(), e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", ErrChunkNotFound.Error(), e.Path, e.Err)
}

func (e *ChunkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrChunkNotFound}
	}
	return []error{ErrChunkNotFound, e.Err}
}

// NewChunkError creates a chunk error for path caused by err (may be nil).
func NewChunkError(path string, err error) error {
	return &ChunkError{Path: path, Err: err}
}
