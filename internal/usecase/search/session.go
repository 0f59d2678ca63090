package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
	"github.com/kailas-cloud/civiccompass/internal/domain/profile"
	"github.com/kailas-cloud/civiccompass/internal/usecase/annotate"
	"github.com/kailas-cloud/civiccompass/internal/usecase/query"
	"github.com/kailas-cloud/civiccompass/internal/usecase/score"
)

// Session is an immutable snapshot of one load: annotated records and everything derived
// from the vocabulary and profile. Queries never write to it.
type Session struct {
	records     []*corpus.Record
	byAnchor    map[anchorKey]*corpus.Record
	byLocation  map[locationKey]*corpus.Record
	concepts    *concept.Index
	categories  concept.Categories
	profile     *profile.Profile
	analyzer    *query.Analyzer
	scorer      *score.Scorer
	suggestions []string
	drawings    []dataset.Drawing
	loadedAt    time.Time
}

type anchorKey struct {
	corpus corpus.Corpus
	anchor string
}

type locationKey struct {
	path  string
	index int
}

// NewSession annotates ds.Records in place and indexes the result. workers bounds the
// annotation fan-out.
func NewSession(ctx context.Context, ds *dataset.Dataset, workers int, locatesCategory string) (*Session, error) {
	idx := concept.NewIndex(ds.Concepts)
	if err := annotate.New(idx).All(ctx, ds.Records, workers); err != nil {
		return nil, err
	}

	p := ds.Profile
	if p == nil {
		p = profile.Empty()
	}

	byAnchor := make(map[anchorKey]*corpus.Record, len(ds.Records))
	byLocation := make(map[locationKey]*corpus.Record, len(ds.Records))
	for _, rec := range ds.Records {
		if a := strings.TrimSpace(rec.Anchor); a != "" {
			k := anchorKey{corpus: rec.Corpus, anchor: a}
			if _, dup := byAnchor[k]; !dup {
				byAnchor[k] = rec
			}
		}
		k := locationKey{path: rec.ChunkPath(), index: rec.RecIndex}
		if _, dup := byLocation[k]; !dup {
			byLocation[k] = rec
		}
	}

	return &Session{
		records:     ds.Records,
		byAnchor:    byAnchor,
		byLocation:  byLocation,
		concepts:    idx,
		categories:  concept.NewCategories(ds.Categories),
		profile:     p,
		analyzer:    query.NewAnalyzer(idx, p),
		scorer:      score.New(idx, p, locatesCategory),
		suggestions: ds.Terms.Suggestions(),
		drawings:    ds.Drawings,
		loadedAt:    time.Now(),
	}, nil
}

// Records returns the annotated records in index order.
func (s *Session) Records() []*corpus.Record { return s.records }

// Categories returns the configured categories.
func (s *Session) Categories() concept.Categories { return s.categories }

// Concepts returns the concept index.
func (s *Session) Concepts() *concept.Index { return s.concepts }

// LoadedAt is when the session was built.
func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// byAnchorLookup finds the first record of corpus c with exactly anchor.
func (s *Session) byAnchorLookup(c corpus.Corpus, anchor string) (*corpus.Record, bool) {
	rec, ok := s.byAnchor[anchorKey{corpus: c, anchor: strings.TrimSpace(anchor)}]
	return rec, ok
}

// atLocation finds the record stored at index of the chunk file at path.
func (s *Session) atLocation(path string, index int) (*corpus.Record, bool) {
	rec, ok := s.byLocation[locationKey{path: path, index: index}]
	return rec, ok
}

// firstInChunk returns any record stored in the chunk file at path.
func (s *Session) firstInChunk(path string) (*corpus.Record, bool) {
	for _, rec := range s.records {
		if rec.ChunkPath() == path {
			return rec, true
		}
	}
	return nil, false
}

func (s *Session) String() string {
	return fmt.Sprintf("session(records=%d concepts=%d categories=%d)",
		len(s.records), s.concepts.Len(), len(s.categories.List()))
}
