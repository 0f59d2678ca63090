package civiccompass

import (
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	"github.com/kailas-cloud/civiccompass/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/civiccompass/internal/usecase/search"
	"github.com/kailas-cloud/civiccompass/internal/usecase/separation"
)

// Orientation is the direction of a utility separation lookup.
type Orientation string

// Orientation constants.
const (
	Horizontal Orientation = Orientation(separation.Horizontal)
	Vertical   Orientation = Orientation(separation.Vertical)
)

// Query is one search. Empty Text browses by category instead of ranking.
type Query struct {
	Text     string
	Corpus   string // DCS, BRC, TITLE9 or empty for all
	Category string // category id or empty for all
	Limit    int    // 0 means the render cap
	Relaxed  bool   // accept any single token hit instead of requiring all tokens
}

// Hit is one ranked record.
type Hit struct {
	Corpus     string
	Anchor     string
	Heading    string
	Location   string
	File       string
	RecIndex   int
	CategoryID string
	Score      float64
	Exact      bool
	Tier       int
	Tags       []string
	Rationale  string
	Snippet    string
}

// Group is one category bucket of hits.
type Group struct {
	CategoryID string
	Label      string
	Total      int
	Hits       []Hit
}

// Results is the outcome of Search. Groups is set instead of Hits when the query was empty.
type Results struct {
	Query        string
	Total        int
	Hits         []Hit
	Top          []Hit
	Groups       []Group
	ConceptTerms []string
}

// Verbatim is the full text of one record.
type Verbatim struct {
	Label   string
	Anchor  string
	Heading string
	Text    string
}

// Drawing is a technical drawing. Path is relative to the site root.
type Drawing struct {
	File  string
	Title string
	Path  string
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status  string            // "ok", "degraded", "error"
	Records int               // records in the active session
	Checks  map[string]string // component → "ok"/"error"
}

func cardToHit(c *result.Card) Hit {
	rec := c.Record
	return Hit{
		Corpus:     string(rec.Corpus),
		Anchor:     rec.Anchor,
		Heading:    rec.Heading,
		Location:   rec.Location(),
		File:       rec.ChunkPath(),
		RecIndex:   rec.RecIndex,
		CategoryID: rec.PrimaryCategoryID,
		Score:      c.Score,
		Exact:      c.Exact,
		Tier:       c.Tier,
		Tags:       c.Tags,
		Rationale:  c.RationaleText(),
	}
}

func hitsFromSearch(hits []searchuc.Hit) []Hit {
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = cardToHit(h.Card)
		out[i].Snippet = h.Snippet
	}
	return out
}

func groupsFromBuckets(buckets []rank.Bucket) []Group {
	out := make([]Group, len(buckets))
	for i, b := range buckets {
		hits := make([]Hit, len(b.Cards))
		for j, c := range b.Cards {
			hits[j] = cardToHit(c)
		}
		out[i] = Group{CategoryID: b.CategoryID, Label: b.Label, Total: b.Total, Hits: hits}
	}
	return out
}
