package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
	"github.com/kailas-cloud/civiccompass/internal/domain/profile"
)

// --- Mocks ---

type mockLoader struct {
	build func() *dataset.Dataset
	err   error
	calls int
}

func (m *mockLoader) Load(_ context.Context) (*dataset.Dataset, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.build(), nil
}

type mockChunks struct {
	chunks map[string]corpus.Chunk
}

func (m *mockChunks) Chunk(_ context.Context, path string) (corpus.Chunk, error) {
	c, ok := m.chunks[path]
	if !ok {
		return nil, domain.NewChunkError(path, nil)
	}
	return c, nil
}

type mockPurger struct {
	calls int
}

func (m *mockPurger) Purge(_ context.Context) error {
	m.calls++
	return nil
}

type observation struct {
	mode    string
	results int
}

type mockRecorder struct {
	mu      sync.Mutex
	queries []observation
	loads   []error
	records int
}

func (m *mockRecorder) ObserveQuery(mode string, _ time.Duration, results int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, observation{mode: mode, results: results})
}

func (m *mockRecorder) SessionLoaded(records int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
	m.loads = append(m.loads, err)
}

// --- Fixtures ---

func dcs(ch int, rec int, anchor, heading, text string) *corpus.Record {
	return &corpus.Record{
		Corpus:   corpus.DCS,
		Path:     corpus.Path{Chapter: corpus.FlexInt(ch)},
		Anchor:   anchor,
		Heading:  heading,
		Text:     text,
		File:     fmt.Sprintf("dcs_json/dcs_ch%02d.json", ch),
		RecIndex: rec,
	}
}

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Records: []*corpus.Record{
			dcs(5, 0, "5.01", "Pavement Cuts", "Saw cut the edges before removal."),
			dcs(5, 1, "5.02", "Asphalt Patching", "Place hot mix in two lifts."),
			dcs(9, 0, "9.03", "Trench Backfill", "Compact backfill in lifts."),
			dcs(6, 0, "6.10", "Backfill Materials", "Flowable backfill is allowed."),
			dcs(4, 0, "4.06(A)", "Parallel Separation",
				"Gas and water lines shall maintain 5 feet horizontal separation."),
			dcs(4, 1, "4.12", "General", "See Section 8-5-12 for restoration of the street."),
			{
				Corpus: corpus.BRC, Path: corpus.Path{Title: 8}, Anchor: "8-5-12",
				Heading: "Street Cut Restoration", Text: "Restore the street to original condition.",
				File: "brc_json/brc_t08.json",
			},
			{
				Corpus: corpus.BRC, Path: corpus.Path{Title: 8}, Anchor: "8-5-20",
				Heading: "Backfill Requirements", Text: "Backfill trenches promptly.",
				File: "brc_json/brc_t08.json", RecIndex: 1,
			},
			{
				Corpus: corpus.Title9, Path: corpus.Path{Chapter: 5}, Anchor: "9-5-1",
				Heading: "Nuisances", Text: "Gas odors are a nuisance.",
				File: "title9_json/t9_ch5.json",
			},
		},
		Concepts: []concept.Concept{
			{ConceptID: "c-restoration", Terms: []string{"restoration", "pavement"}, PrimaryCategoryID: "cat-05"},
			{ConceptID: "c-backfill", Terms: []string{"backfill"}, PrimaryCategoryID: "cat-03"},
			{ConceptID: "c-separation", Terms: []string{"separation"}, PrimaryCategoryID: "cat-04"},
		},
		Categories: []concept.Category{
			{ID: "cat-02", Label: "Locates"},
			{ID: "cat-03", Label: "Excavation & Backfill"},
			{ID: "cat-04", Label: "Utility Separation"},
			{ID: "cat-05", Label: "Restoration"},
		},
		Profile:  profile.Empty(),
		Terms:    dataset.Terms{Common: []string{"backfill", "Backfill", "restoration"}},
		Drawings: []dataset.Drawing{{File: "T-101.pdf", Title: "Trench Section"}, {File: "T-102.pdf"}},
	}
}

func testChunks() *mockChunks {
	return &mockChunks{chunks: map[string]corpus.Chunk{
		"./data/dcs/dcs_ch05.json": {
			{Anchor: "5.01", Heading: "Pavement Cuts", Text: "Saw cut the edges before removal."},
			{Anchor: "5.02", Heading: "Asphalt Patching", Text: "Place hot mix.", Verbatim: "5.02 Place hot mix in two lifts <min>."},
			{Text: "Trailing note without heading."},
			{Anchor: "5.04"},
		},
	}}
}

func newTestService(t *testing.T, opts Options) (*Service, *mockRecorder) {
	t.Helper()
	rec := &mockRecorder{}
	svc := New(&mockLoader{build: testDataset}, testChunks(), nil, rec, opts, zap.NewNop())
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc, rec
}
