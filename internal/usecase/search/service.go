package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/request"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	"github.com/kailas-cloud/civiccompass/internal/usecase/query"
	"github.com/kailas-cloud/civiccompass/internal/usecase/rank"
	"github.com/kailas-cloud/civiccompass/internal/usecase/score"
	"github.com/kailas-cloud/civiccompass/internal/usecase/snippet"
)

// Query modes reported to the recorder.
const (
	ModeSearch     = "search"
	ModeBrowse     = "browse"
	ModeSeparation = "separation"
)

// Defaults for Options.
const (
	DefaultRenderCap         = 500
	DefaultTopMatches        = 10
	DefaultBrowsePerCategory = 25
	DefaultReaderPageSize    = 30
)

// minParallelRecords is the record count below which scoring stays on one goroutine.
const minParallelRecords = 2048

// Options tune result sizes and parallelism.
type Options struct {
	RenderCap         int
	TopMatches        int
	BrowsePerCategory int
	ReaderPageSize    int
	Workers           int
	LocatesCategory   string
}

func (o *Options) applyDefaults() {
	if o.RenderCap <= 0 {
		o.RenderCap = DefaultRenderCap
	}
	if o.TopMatches <= 0 {
		o.TopMatches = DefaultTopMatches
	}
	if o.BrowsePerCategory <= 0 {
		o.BrowsePerCategory = DefaultBrowsePerCategory
	}
	if o.ReaderPageSize <= 0 {
		o.ReaderPageSize = DefaultReaderPageSize
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.LocatesCategory == "" {
		o.LocatesCategory = score.DefaultLocatesCategory
	}
}

// Hit is a ranked card with its display snippet.
type Hit struct {
	*result.Card
	Snippet     string
	SnippetHTML string
}

// Response is the outcome of one Search call. Browse is set for an empty query, in which case
// Buckets carries the browse listing and the ranked fields are empty.
type Response struct {
	Query         string
	Browse        bool
	Hits          []Hit
	Total         int
	Top           []Hit
	CategoryOrder []string
	ConceptTerms  []string
	Buckets       []rank.Bucket
}

// Service answers queries against the current session. Reload swaps the session atomically;
// in-flight queries keep the snapshot they started with.
type Service struct {
	loader   DatasetLoader
	chunks   ChunkReader
	purger   ChunkPurger
	recorder Recorder
	opts     Options
	logger   *zap.Logger

	session     atomic.Pointer[Session]
	parallelMin int
}

// New creates a search service. purger and recorder may be nil.
func New(
	loader DatasetLoader,
	chunks ChunkReader,
	purger ChunkPurger,
	recorder Recorder,
	opts Options,
	logger *zap.Logger,
) *Service {
	opts.applyDefaults()
	return &Service{
		loader:      loader,
		chunks:      chunks,
		purger:      purger,
		recorder:    recorder,
		opts:        opts,
		logger:      logger,
		parallelMin: minParallelRecords,
	}
}

// Reload loads the dataset and replaces the session. On failure the previous session, if any,
// stays active.
func (s *Service) Reload(ctx context.Context) error {
	sess, err := s.build(ctx)
	if s.recorder != nil {
		n := 0
		if sess != nil {
			n = len(sess.records)
		}
		s.recorder.SessionLoaded(n, err)
	}
	if err != nil {
		s.logger.Error("Session load failed", zap.Error(err))
		return err
	}

	prev := s.session.Swap(sess)
	if prev != nil && s.purger != nil {
		if err := s.purger.Purge(ctx); err != nil {
			s.logger.Warn("Failed to purge chunk cache", zap.Error(err))
		}
	}
	s.logger.Info("Session loaded", zap.Stringer("session", sess))
	return nil
}

func (s *Service) build(ctx context.Context) (*Session, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	sess, err := NewSession(ctx, ds, s.opts.Workers, s.opts.LocatesCategory)
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}
	return sess, nil
}

// Session returns the active session.
func (s *Service) Session() (*Session, error) {
	sess := s.session.Load()
	if sess == nil {
		return nil, domain.ErrSessionNotLoaded
	}
	return sess, nil
}

// Search ranks records for req. An empty query yields the browse listing.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	if req.Category() != "" && !sess.categories.Has(req.Category()) &&
		req.Category() != concept.OtherCategoryID {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidQuery, req.Category())
	}

	q := query.Expand(req.Query())
	if q == "" {
		buckets, err := s.browse(sess, req.Corpus(), req.Category())
		if err != nil {
			return nil, err
		}
		return &Response{Browse: true, Buckets: buckets}, nil
	}

	start := time.Now()
	an := sess.analyzer.AnalyzeExpanded(q)
	cards, err := s.scoreAll(ctx, sess, func(rec *corpus.Record) *result.Card {
		return s.scoreWithIntents(sess, rec, an, score.Options{Corpus: req.Corpus(), MinHit: req.MinHit()})
	})
	if err != nil {
		return nil, err
	}
	rank.Sort(cards, rank.Intents{Section: an.Section != nil, Chapter: an.Chapter > 0})

	terms := an.ConceptTerms()
	filtered := filterCategory(cards, req.Category())
	limit := min(req.Limit(), s.opts.RenderCap)
	resp := &Response{
		Query:         q,
		Hits:          s.hits(filtered[:min(limit, len(filtered))], q, terms),
		Total:         len(filtered),
		Top:           s.hits(result.ExactFirst(cards, s.opts.TopMatches), q, terms),
		CategoryOrder: rank.CategoryOrder(filtered, sess.categories),
		ConceptTerms:  terms,
	}
	s.observe(ModeSearch, start, len(filtered))
	return resp, nil
}

// scoreWithIntents applies the section and chapter overrides before falling back to the scorer.
func (s *Service) scoreWithIntents(
	sess *Session, rec *corpus.Record, an *query.Analysis, opts score.Options,
) *result.Card {
	if opts.Corpus != "" && rec.Corpus != opts.Corpus {
		return nil
	}
	if an.Section.Matches(rec.Anchor) {
		c := result.New(rec)
		c.Score = result.SectionIntentScore
		c.Section = true
		c.Rationale = []string{"Section intent"}
		c.Tags = sess.scorer.Tags(rec)
		return c
	}
	if an.Chapter > 0 && rec.Chapter() == an.Chapter {
		c := result.New(rec)
		c.Score = result.ChapterIntentScore
		c.Chapter = true
		c.Rationale = []string{"Chapter intent"}
		c.Tags = sess.scorer.Tags(rec)
		return c
	}
	return sess.scorer.Score(rec, an, opts)
}

// scoreAll evaluates fn over every record and returns the non-nil cards in record order.
// Large corpora are partitioned across the configured workers.
func (s *Service) scoreAll(
	ctx context.Context, sess *Session, fn func(*corpus.Record) *result.Card,
) ([]*result.Card, error) {
	recs := sess.records
	slots := make([]*result.Card, len(recs))

	workers := s.opts.Workers
	if workers <= 1 || len(recs) < s.parallelMin {
		for i, rec := range recs {
			slots[i] = fn(rec)
		}
	} else {
		g, ctx := errgroup.WithContext(ctx)
		size := (len(recs) + workers - 1) / workers
		for lo := 0; lo < len(recs); lo += size {
			hi := min(lo+size, len(recs))
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					slots[i] = fn(recs[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("score records: %w", err)
		}
	}

	cards := make([]*result.Card, 0, len(slots)/4)
	for _, c := range slots {
		if c != nil {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

func filterCategory(cards []*result.Card, category string) []*result.Card {
	if category == "" {
		return cards
	}
	out := make([]*result.Card, 0, len(cards))
	for _, c := range cards {
		if c.Record.PrimaryCategoryID == category ||
			(category == concept.OtherCategoryID && c.Record.PrimaryCategoryID == "") {
			out = append(out, c)
		}
	}
	return out
}

func (s *Service) hits(cards []*result.Card, q string, terms []string) []Hit {
	out := make([]Hit, len(cards))
	for i, c := range cards {
		snip := snippet.Build(c.Record.Body(), q, terms)
		out[i] = Hit{Card: c, Snippet: snip, SnippetHTML: snippet.Highlight(snip, q)}
	}
	return out
}

func (s *Service) observe(mode string, start time.Time, n int) {
	if s.recorder != nil {
		s.recorder.ObserveQuery(mode, time.Since(start), n)
	}
}

// Browse lists records by category in workflow order, OTHER last, capped per category.
func (s *Service) Browse(_ context.Context, corpusName, category string) ([]rank.Bucket, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	c, err := corpus.ParseCorpus(corpusName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	if category == "ALL" {
		category = ""
	}
	return s.browse(sess, c, category)
}

func (s *Service) browse(sess *Session, c corpus.Corpus, category string) ([]rank.Bucket, error) {
	start := time.Now()
	byID := make(map[string][]*corpus.Record)
	for _, rec := range sess.records {
		if c != "" && rec.Corpus != c {
			continue
		}
		id := sess.categories.Bucket(rec.PrimaryCategoryID)
		byID[id] = append(byID[id], rec)
	}

	order := append(sess.categories.IDs(), concept.OtherCategoryID)
	buckets := make([]rank.Bucket, 0, len(order))
	total := 0
	for _, id := range order {
		if category != "" && id != category {
			continue
		}
		recs := byID[id]
		if len(recs) == 0 {
			continue
		}
		rank.SortBrowse(recs)
		shown := recs[:min(len(recs), s.opts.BrowsePerCategory)]
		cards := make([]*result.Card, len(shown))
		for i, rec := range shown {
			cards[i] = result.New(rec)
			cards[i].Tags = sess.scorer.Tags(rec)
		}
		buckets = append(buckets, rank.Bucket{
			CategoryID: id,
			Label:      sess.categories.Label(id),
			Cards:      cards,
			Total:      len(recs),
		})
		total += len(recs)
	}
	s.observe(ModeBrowse, start, total)
	return buckets, nil
}

// Group buckets a ranked hit list by category in search order.
func (s *Service) Group(hits []Hit) ([]rank.Bucket, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	cards := make([]*result.Card, len(hits))
	for i, h := range hits {
		cards[i] = h.Card
	}
	return rank.Group(cards, sess.categories, true), nil
}

// Categories returns the configured categories in workflow order.
func (s *Service) Categories() ([]concept.Category, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	return sess.categories.List(), nil
}

// Drawings returns the technical drawings in document order.
func (s *Service) Drawings() ([]dataset.Drawing, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	return sess.drawings, nil
}

// Suggestions returns the deduplicated common search terms.
func (s *Service) Suggestions() ([]string, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	return sess.suggestions, nil
}

// RecordByAnchor returns the card for the record of corpusName whose anchor equals anchor.
func (s *Service) RecordByAnchor(_ context.Context, corpusName, anchor string) (*result.Card, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	c, err := corpus.ParseCorpus(corpusName)
	if err != nil || c == "" {
		return nil, fmt.Errorf("%w: corpus %q", domain.ErrInvalidQuery, corpusName)
	}
	rec, ok := sess.byAnchorLookup(c, anchor)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrRecordNotFound, c, anchor)
	}
	card := result.New(rec)
	card.Tags = sess.scorer.Tags(rec)
	return card, nil
}

// Snippet builds the display window for text and its highlighted HTML variant.
func (s *Service) Snippet(text, q string, terms []string) (string, string) {
	q = query.Expand(q)
	snip := snippet.Build(text, q, terms)
	return snip, snippet.Highlight(snip, q)
}

// Loaded reports the active session's record count.
func (s *Service) Loaded() (int, bool) {
	sess := s.session.Load()
	if sess == nil {
		return 0, false
	}
	return len(sess.records), true
}
