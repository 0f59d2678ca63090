package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	"github.com/kailas-cloud/civiccompass/internal/usecase/query"
	"github.com/kailas-cloud/civiccompass/internal/usecase/snippet"
)

// MissingVerbatim is shown when the chunk file exists but the item has no text.
const MissingVerbatim = "(No verbatim text found in chunk)"

// Verbatim is the full text of one record with its source context.
type Verbatim struct {
	Label   string
	Anchor  string
	Heading string
	Text    string
}

// Verbatim returns the full text stored at index of the chunk file referenced by file.
func (s *Service) Verbatim(ctx context.Context, file string, index int) (*Verbatim, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	path := corpus.NormalizeFilePath(file)
	chunk, err := s.chunks.Chunk(ctx, path)
	if err != nil {
		return nil, err
	}
	item, ok := chunk.Item(index)
	if !ok {
		return nil, fmt.Errorf("%w: index %d not in %s", domain.ErrRecordNotFound, index, path)
	}

	v := &Verbatim{Anchor: item.Anchor, Heading: item.Heading, Text: item.VerbatimText()}
	if rec, ok := sess.atLocation(path, index); ok {
		v.Label = rec.ReaderLabel()
		v.Anchor = rec.Anchor
		v.Heading = rec.Heading
	}
	if v.Text == "" {
		v.Text = MissingVerbatim
	}
	return v, nil
}

// ReaderSection is one chunk item in read-through mode.
type ReaderSection struct {
	Index int
	Title string
	HTML  string
}

// ReaderPage is one page of a chunk file in read-through mode.
type ReaderPage struct {
	Label    string
	Path     string
	Total    int
	Offset   int
	Sections []ReaderSection
}

// Reader pages through every item of the chunk file referenced by file. Item text is escaped
// and query hits highlighted. limit <= 0 uses the configured page size.
func (s *Service) Reader(ctx context.Context, file, q string, offset, limit int) (*ReaderPage, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", domain.ErrInvalidQuery)
	}
	if limit <= 0 {
		limit = s.opts.ReaderPageSize
	}

	path := corpus.NormalizeFilePath(file)
	chunk, err := s.chunks.Chunk(ctx, path)
	if err != nil {
		return nil, err
	}

	page := &ReaderPage{Label: "Reader", Path: path, Total: len(chunk), Offset: offset}
	if rec, ok := sess.firstInChunk(path); ok {
		page.Label = rec.ReaderLabel()
	}

	q = query.Expand(q)
	end := min(len(chunk), offset+limit)
	for i := offset; i < end; i++ {
		item := chunk[i]
		page.Sections = append(page.Sections, ReaderSection{
			Index: i,
			Title: item.Title(i),
			HTML:  snippet.Highlight(item.VerbatimText(), q),
		})
	}
	return page, nil
}

// Pin is a fixed reference section shown alongside search.
type Pin struct {
	Group  string
	Label  string
	Corpus corpus.Corpus
	Anchor string
}

var pins = []Pin{
	{Group: "Separations", Label: "Parallel (Horizontal) Separation", Corpus: corpus.DCS, Anchor: "4.06(A)"},
	{Group: "Separations", Label: "Pipe Crossings (Vertical) Separation", Corpus: corpus.DCS, Anchor: "4.06(B)"},
	{Group: "Separations", Label: "Drainageway and Irrigation Ditch Crossings", Corpus: corpus.DCS, Anchor: "4.06(C)"},
	{Group: "Restoration", Label: "BRC 8-5-12", Corpus: corpus.BRC, Anchor: "8-5-12"},
}

// PinnedCard is a pin resolved against the session. Card is nil when the section is absent.
type PinnedCard struct {
	Pin
	Card *result.Card
}

// Pinned resolves every pinned section.
func (s *Service) Pinned(ctx context.Context) ([]PinnedCard, error) {
	if _, err := s.Session(); err != nil {
		return nil, err
	}
	out := make([]PinnedCard, len(pins))
	for i, p := range pins {
		out[i] = PinnedCard{Pin: p}
		card, err := s.RecordByAnchor(ctx, string(p.Corpus), p.Anchor)
		if err == nil {
			out[i].Card = card
		}
	}
	return out, nil
}
