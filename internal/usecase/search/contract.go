package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
)

// DatasetLoader reads the documents a session is built from.
type DatasetLoader interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// ChunkReader returns decoded chunk files by normalized chunk path.
type ChunkReader interface {
	Chunk(ctx context.Context, path string) (corpus.Chunk, error)
}

// ChunkPurger drops cached chunks when a new session replaces the old one.
type ChunkPurger interface {
	Purge(ctx context.Context) error
}

// Recorder observes query and load outcomes.
type Recorder interface {
	ObserveQuery(mode string, d time.Duration, results int)
	SessionLoaded(records int, err error)
}
