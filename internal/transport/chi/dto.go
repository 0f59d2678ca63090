package chi

import (
	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	"github.com/kailas-cloud/civiccompass/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/civiccompass/internal/usecase/search"
	"github.com/kailas-cloud/civiccompass/internal/usecase/separation"
)

// Card is one record as rendered to clients.
type Card struct {
	Corpus      string   `json:"corpus"`
	Anchor      string   `json:"anchor"`
	Heading     string   `json:"heading"`
	Location    string   `json:"location"`
	File        string   `json:"file"`
	RecIndex    int      `json:"rec_index"`
	CategoryID  string   `json:"category_id,omitempty"`
	Tier        int      `json:"tier"`
	Score       float64  `json:"score"`
	Exact       bool     `json:"exact,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rationale   string   `json:"rationale,omitempty"`
	Snippet     string   `json:"snippet,omitempty"`
	SnippetHTML string   `json:"snippet_html,omitempty"`
}

// Bucket is one category group of cards.
type Bucket struct {
	CategoryID string `json:"category_id"`
	Label      string `json:"label"`
	Total      int    `json:"total"`
	Cards      []Card `json:"cards"`
}

// SearchResponse is the body of GET /search. Browse is true for an empty query.
type SearchResponse struct {
	Query         string   `json:"query"`
	Browse        bool     `json:"browse"`
	Total         int      `json:"total"`
	Items         []Card   `json:"items"`
	Top           []Card   `json:"top"`
	CategoryOrder []string `json:"category_order,omitempty"`
	ConceptTerms  []string `json:"concept_terms,omitempty"`
	Buckets       []Bucket `json:"buckets,omitempty"`
}

// SeparationResponse is the body of GET /separation.
type SeparationResponse struct {
	New          string   `json:"new"`
	Existing     string   `json:"existing"`
	Orientation  string   `json:"orientation"`
	Query        string   `json:"query"`
	Items        []Card   `json:"items"`
	ConceptTerms []string `json:"concept_terms,omitempty"`
}

// PinResponse is one pinned reference section.
type PinResponse struct {
	Group  string `json:"group"`
	Label  string `json:"label"`
	Corpus string `json:"corpus"`
	Anchor string `json:"anchor"`
	Card   *Card  `json:"card,omitempty"`
}

// VerbatimResponse is the body of GET /verbatim. Missing is set when the placeholder text
// stands in for an unavailable chunk or item.
type VerbatimResponse struct {
	Label   string `json:"label"`
	Anchor  string `json:"anchor,omitempty"`
	Heading string `json:"heading,omitempty"`
	Text    string `json:"text"`
	Missing bool   `json:"missing,omitempty"`
}

// ReaderSection is one chunk item in a reader page.
type ReaderSection struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// ReaderResponse is the body of GET /reader.
type ReaderResponse struct {
	Label    string          `json:"label"`
	Path     string          `json:"path"`
	Total    int             `json:"total"`
	Offset   int             `json:"offset"`
	Sections []ReaderSection `json:"sections"`
	Missing  bool            `json:"missing,omitempty"`
}

// SnippetRequest is the body of POST /snippet.
type SnippetRequest struct {
	Text  string   `json:"text"`
	Query string   `json:"query"`
	Terms []string `json:"terms,omitempty"`
}

// SnippetResponse is the body returned by POST /snippet.
type SnippetResponse struct {
	Snippet string `json:"snippet"`
	HTML    string `json:"html"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Records int               `json:"records"`
	Checks  map[string]string `json:"checks"`
}

// Drawing is one technical drawing link. Path is relative to the site root.
type Drawing struct {
	File  string `json:"file"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// DrawingsResponse is the body of GET /drawings.
type DrawingsResponse struct {
	Items []Drawing `json:"items"`
}

func cardToDTO(c *result.Card) Card {
	rec := c.Record
	return Card{
		Corpus:     string(rec.Corpus),
		Anchor:     rec.Anchor,
		Heading:    rec.Heading,
		Location:   rec.Location(),
		File:       rec.ChunkPath(),
		RecIndex:   rec.RecIndex,
		CategoryID: rec.PrimaryCategoryID,
		Tier:       c.Tier,
		Score:      c.Score,
		Exact:      c.Exact,
		Tags:       c.Tags,
		Rationale:  c.RationaleText(),
	}
}

func hitToDTO(h searchuc.Hit) Card {
	out := cardToDTO(h.Card)
	out.Snippet = h.Snippet
	out.SnippetHTML = h.SnippetHTML
	return out
}

func hitsToDTO(hits []searchuc.Hit) []Card {
	out := make([]Card, len(hits))
	for i, h := range hits {
		out[i] = hitToDTO(h)
	}
	return out
}

// bucketsToDTO renders buckets. snippets, when non-nil, supplies the display snippet per card.
func bucketsToDTO(buckets []rank.Bucket, snippets map[*result.Card]searchuc.Hit) []Bucket {
	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		cards := make([]Card, len(b.Cards))
		for j, c := range b.Cards {
			if h, ok := snippets[c]; ok {
				cards[j] = hitToDTO(h)
			} else {
				cards[j] = cardToDTO(c)
			}
		}
		out[i] = Bucket{CategoryID: b.CategoryID, Label: b.Label, Total: b.Total, Cards: cards}
	}
	return out
}

func categoriesToDTO(list []concept.Category) []concept.Category {
	if list == nil {
		return []concept.Category{}
	}
	return list
}

func utilitiesToDTO(list []separation.Utility) []separation.Utility {
	if list == nil {
		return []separation.Utility{}
	}
	return list
}

func drawingsToDTO(list []dataset.Drawing) []Drawing {
	out := make([]Drawing, 0, len(list))
	for _, d := range list {
		out = append(out, Drawing{File: d.File, Title: d.Label(), Path: d.Path()})
	}
	return out
}
