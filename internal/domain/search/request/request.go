package request

import (
	"fmt"

	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1024
	DefaultLimit   = 500
	MaxLimit       = 2000
)

// Request is a validated search query. An empty query means browse.
type Request struct {
	query    string
	corpus   corpus.Corpus
	category string
	limit    int
	minHit   mode.Mode
}

// New validates and normalizes search parameters.
// Defaults: corpus=ALL, category=ALL, limit=500, minHit=all.
func New(query, corpusName, category string, limit int, minHit mode.Mode) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	c, err := corpus.ParseCorpus(corpusName)
	if err != nil {
		return Request{}, err
	}
	if category == "ALL" {
		category = ""
	}
	if minHit == "" {
		minHit = mode.All
	}
	if !minHit.IsValid() {
		return Request{}, fmt.Errorf("invalid evidence mode: %q", minHit)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Request{
		query:    query,
		corpus:   c,
		category: category,
		limit:    limit,
		minHit:   minHit,
	}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// Corpus returns the corpus restriction ("" for all).
func (r *Request) Corpus() corpus.Corpus { return r.corpus }

// Category returns the category restriction ("" for all).
func (r *Request) Category() string { return r.category }

// Limit returns the maximum number of ranked results returned.
func (r *Request) Limit() int { return r.limit }

// MinHit returns the minimum-evidence policy.
func (r *Request) MinHit() mode.Mode { return r.minHit }
