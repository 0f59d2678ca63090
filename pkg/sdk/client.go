package civiccompass

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/civiccompass/internal/db"
	dbRedis "github.com/kailas-cloud/civiccompass/internal/db/redis"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/mode"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/request"
	"github.com/kailas-cloud/civiccompass/internal/repository/chunkcache"
	corpusrepo "github.com/kailas-cloud/civiccompass/internal/repository/corpus"
	healthuc "github.com/kailas-cloud/civiccompass/internal/usecase/health"
	searchuc "github.com/kailas-cloud/civiccompass/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = time.Hour
)

// Client is the civiccompass SDK entry point.
type Client struct {
	site      *corpusrepo.FS
	store     db.Store
	searchSvc *searchuc.Service
	healthSvc *healthuc.Service
	obs       *observer
}

// Open loads the corpus under the configured root and returns a ready Client.
// The provided context bounds the shared store readiness check and the first load.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{root: ".", dataDir: "data", cacheTTL: defaultCacheTTL}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	site, err := corpusrepo.OpenFS(cfg.root)
	if err != nil {
		return nil, fmt.Errorf("civiccompass: open root: %w", err)
	}

	var store db.Store
	if len(cfg.redisAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.redisAddrs, Password: cfg.password})
		if err != nil {
			_ = site.Close()
			return nil, fmt.Errorf("civiccompass: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			_ = site.Close()
			return nil, fmt.Errorf("civiccompass: redis not ready: %w", err)
		}
		store = s
	}

	c := wireClient(site, store, cfg, obs)
	if err := c.Reload(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(site *corpusrepo.FS, store db.Store, cfg *clientConfig, obs *observer) *Client {
	// Nil interfaces, not typed nil pointers, when no shared store is configured.
	var kv db.KVStore
	var pinger healthuc.CachePinger
	if store != nil {
		kv = store
		pinger = store
	}

	// The SDK reports through slog; the engine's own zap logging stays silent.
	nop := zap.NewNop()
	chunks := chunkcache.New(site, kv, cfg.cacheTTL, nil, nop).WithKeyPrefix(cfg.keyPrefix)
	loader := corpusrepo.NewLoader(site, cfg.dataDir, corpusrepo.DefaultFiles(), nop)
	searchSvc := searchuc.New(loader, chunks, chunks, nil, searchuc.Options{
		RenderCap: cfg.renderCap,
		Workers:   cfg.workers,
	}, nop)

	return &Client{
		site:      site,
		store:     store,
		searchSvc: searchSvc,
		healthSvc: healthuc.New(searchSvc, pinger),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.site != nil {
		_ = c.site.Close()
	}
}

// Reload re-reads the corpus documents. On failure the previous corpus stays active.
func (c *Client) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	if err = c.searchSvc.Reload(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// Search ranks records for q.
func (c *Client) Search(ctx context.Context, q Query) (_ *Results, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	minHit := mode.All
	if q.Relaxed {
		minHit = mode.Any
	}
	req, err := request.New(q.Text, q.Corpus, q.Category, q.Limit, minHit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	resp, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	c.obs.hits("search", len(resp.Hits))
	return &Results{
		Query:        resp.Query,
		Total:        resp.Total,
		Hits:         hitsFromSearch(resp.Hits),
		Top:          hitsFromSearch(resp.Top),
		Groups:       groupsFromBuckets(resp.Buckets),
		ConceptTerms: resp.ConceptTerms,
	}, nil
}

// Browse lists records by category in workflow order.
func (c *Client) Browse(ctx context.Context, corpus, category string) (_ []Group, err error) {
	start := time.Now()
	defer func() { c.obs.observe("browse", start, err) }()

	buckets, err := c.searchSvc.Browse(ctx, corpus, category)
	if err != nil {
		return nil, fmt.Errorf("browse: %w", err)
	}
	groups := groupsFromBuckets(buckets)
	n := 0
	for _, g := range groups {
		n += len(g.Hits)
	}
	c.obs.hits("browse", n)
	return groups, nil
}

// Separation finds the passages stating the required separation between a new and an
// existing utility (GAS, WATER, SANITARY, STORM, ELECTRIC, TELECOM).
func (c *Client) Separation(ctx context.Context, newUtility, existing string, o Orientation) (_ []Hit, err error) {
	start := time.Now()
	defer func() { c.obs.observe("separation", start, err) }()

	resp, err := c.searchSvc.Separation(ctx, newUtility, existing, string(o), "")
	if err != nil {
		return nil, fmt.Errorf("separation: %w", err)
	}
	c.obs.hits("separation", len(resp.Hits))
	return hitsFromSearch(resp.Hits), nil
}

// Drawings lists the technical drawings of the loaded site, in document order.
func (c *Client) Drawings(ctx context.Context) (_ []Drawing, err error) {
	start := time.Now()
	defer func() { c.obs.observe("drawings", start, err) }()

	list, err := c.searchSvc.Drawings()
	if err != nil {
		return nil, fmt.Errorf("drawings: %w", err)
	}
	out := make([]Drawing, 0, len(list))
	for _, d := range list {
		out = append(out, Drawing{File: d.File, Title: d.Label(), Path: d.Path()})
	}
	return out, nil
}

// Verbatim returns the full text of the chunk item at index in file.
func (c *Client) Verbatim(ctx context.Context, file string, index int) (_ *Verbatim, err error) {
	start := time.Now()
	defer func() { c.obs.observe("verbatim", start, err) }()

	v, err := c.searchSvc.Verbatim(ctx, file, index)
	if err != nil {
		return nil, fmt.Errorf("verbatim: %w", err)
	}
	return &Verbatim{Label: v.Label, Anchor: v.Anchor, Heading: v.Heading, Text: v.Text}, nil
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:  string(report.Status),
		Records: report.Records,
		Checks:  checks,
	}
}
