// Package chi exposes the search service over HTTP with a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/mode"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/request"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/civiccompass/internal/logger"
	healthuc "github.com/kailas-cloud/civiccompass/internal/usecase/health"
	"github.com/kailas-cloud/civiccompass/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/civiccompass/internal/usecase/search"
	"github.com/kailas-cloud/civiccompass/internal/usecase/separation"
)

// maxSnippetBody caps POST /snippet bodies.
const maxSnippetBody = 1 << 20

// Searcher is the consumer interface for the search service (ISP).
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (*searchuc.Response, error)
	Browse(ctx context.Context, corpusName, category string) ([]rank.Bucket, error)
	Group(hits []searchuc.Hit) ([]rank.Bucket, error)
	Categories() ([]concept.Category, error)
	Separation(ctx context.Context, newID, existingID, orientation, corpusName string) (*searchuc.SeparationResponse, error)
	Utilities() []separation.Utility
	Pinned(ctx context.Context) ([]searchuc.PinnedCard, error)
	RecordByAnchor(ctx context.Context, corpusName, anchor string) (*result.Card, error)
	Verbatim(ctx context.Context, file string, index int) (*searchuc.Verbatim, error)
	Reader(ctx context.Context, file, q string, offset, limit int) (*searchuc.ReaderPage, error)
	Suggestions() ([]string, error)
	Drawings() ([]dataset.Drawing, error)
	Snippet(text, q string, terms []string) (string, string)
	Reload(ctx context.Context) error
	Loaded() (int, bool)
}

// HealthChecker is the consumer interface for the health service (ISP).
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search Searcher
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{search: search, health: health, logger: logger}
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/search", s.Search)
	r.Get("/browse", s.Browse)
	r.Get("/categories", s.Categories)
	r.Get("/separation", s.Separation)
	r.Get("/utilities", s.Utilities)
	r.Get("/pins", s.Pins)
	r.Get("/records/{corpus}/{anchor}", s.Record)
	r.Get("/verbatim", s.Verbatim)
	r.Get("/reader", s.Reader)
	r.Get("/suggestions", s.Suggestions)
	r.Get("/drawings", s.Drawings)
	r.Post("/snippet", s.Snippet)
	r.Post("/admin/reload", s.Reload)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		limit   int
		minHit  string
		grouped bool
	)
	if err := bindQuery(r, "limit", &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(r, "min_hit", &minHit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(r, "grouped", &grouped); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	req, err := request.New(q.Get("q"), q.Get("corpus"), q.Get("category"), limit, mode.Mode(minHit))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	out := SearchResponse{
		Query:         resp.Query,
		Browse:        resp.Browse,
		Total:         resp.Total,
		Items:         hitsToDTO(resp.Hits),
		Top:           hitsToDTO(resp.Top),
		CategoryOrder: resp.CategoryOrder,
		ConceptTerms:  resp.ConceptTerms,
	}
	switch {
	case resp.Browse:
		out.Buckets = bucketsToDTO(resp.Buckets, nil)
	case grouped:
		buckets, err := s.search.Group(resp.Hits)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		byCard := make(map[*result.Card]searchuc.Hit, len(resp.Hits))
		for _, h := range resp.Hits {
			byCard[h.Card] = h
		}
		out.Buckets = bucketsToDTO(buckets, byCard)
	}
	writeJSON(w, http.StatusOK, out)
}

// Browse handles GET /browse.
func (s *Server) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	buckets, err := s.search.Browse(r.Context(), q.Get("corpus"), q.Get("category"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buckets": bucketsToDTO(buckets, nil)})
}

// Categories handles GET /categories.
func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.search.Categories()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categoriesToDTO(cats)})
}

// Separation handles GET /separation.
func (s *Server) Separation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := s.search.Separation(r.Context(), q.Get("new"), q.Get("existing"), q.Get("orientation"), q.Get("corpus"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeparationResponse{
		New:          resp.Lookup.New.ID,
		Existing:     resp.Lookup.Existing.ID,
		Orientation:  string(resp.Lookup.Orientation),
		Query:        resp.Query,
		Items:        hitsToDTO(resp.Hits),
		ConceptTerms: resp.ConceptTerms,
	})
}

// Utilities handles GET /utilities.
func (s *Server) Utilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"utilities": utilitiesToDTO(s.search.Utilities())})
}

// Pins handles GET /pins.
func (s *Server) Pins(w http.ResponseWriter, r *http.Request) {
	pinned, err := s.search.Pinned(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	out := make([]PinResponse, len(pinned))
	for i, p := range pinned {
		out[i] = PinResponse{Group: p.Group, Label: p.Label, Corpus: string(p.Corpus), Anchor: p.Anchor}
		if p.Card != nil {
			c := cardToDTO(p.Card)
			out[i].Card = &c
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pins": out})
}

// Record handles GET /records/{corpus}/{anchor}.
func (s *Server) Record(w http.ResponseWriter, r *http.Request) {
	var corpusName, anchor string
	if err := bindPath(r, "corpus", &corpusName); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := bindPath(r, "anchor", &anchor); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	card, err := s.search.RecordByAnchor(r.Context(), corpusName, anchor)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cardToDTO(card))
}

// Verbatim handles GET /verbatim. A missing chunk or item yields the placeholder text.
func (s *Server) Verbatim(w http.ResponseWriter, r *http.Request) {
	var (
		file  string
		index int
	)
	if err := runtime.BindQueryParameter("form", true, true, "file", r.URL.Query(), &file); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "index", r.URL.Query(), &index); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	v, err := s.search.Verbatim(r.Context(), file, index)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, VerbatimResponse{Label: v.Label, Anchor: v.Anchor, Heading: v.Heading, Text: v.Text})
	case errors.Is(err, domain.ErrChunkNotFound), errors.Is(err, domain.ErrRecordNotFound):
		logpkg.FromContext(r.Context()).Warn("Verbatim text unavailable",
			zap.String("file", file), zap.Int("index", index), zap.Error(err))
		writeJSON(w, http.StatusOK, VerbatimResponse{Label: "Reader", Text: searchuc.MissingVerbatim, Missing: true})
	default:
		handleDomainError(w, r, err)
	}
}

// Reader handles GET /reader.
func (s *Server) Reader(w http.ResponseWriter, r *http.Request) {
	var (
		file          string
		offset, limit int
	)
	if err := runtime.BindQueryParameter("form", true, true, "file", r.URL.Query(), &file); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(r, "offset", &offset); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := bindQuery(r, "limit", &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	page, err := s.search.Reader(r.Context(), file, r.URL.Query().Get("q"), offset, limit)
	if errors.Is(err, domain.ErrChunkNotFound) {
		logpkg.FromContext(r.Context()).Warn("Reader chunk unavailable", zap.String("file", file), zap.Error(err))
		writeJSON(w, http.StatusOK, ReaderResponse{
			Label:    "Reader",
			Path:     file,
			Sections: []ReaderSection{},
			Missing:  true,
		})
		return
	}
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	sections := make([]ReaderSection, len(page.Sections))
	for i, sec := range page.Sections {
		sections[i] = ReaderSection{Index: sec.Index, Title: sec.Title, HTML: sec.HTML}
	}
	writeJSON(w, http.StatusOK, ReaderResponse{
		Label:    page.Label,
		Path:     page.Path,
		Total:    page.Total,
		Offset:   page.Offset,
		Sections: sections,
	})
}

// Drawings handles GET /drawings.
func (s *Server) Drawings(w http.ResponseWriter, r *http.Request) {
	drawings, err := s.search.Drawings()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DrawingsResponse{Items: drawingsToDTO(drawings)})
}

// Suggestions handles GET /suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	terms, err := s.search.Suggestions()
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": terms})
}

// Snippet handles POST /snippet.
func (s *Server) Snippet(w http.ResponseWriter, r *http.Request) {
	var req SnippetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnippetBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	snip, html := s.search.Snippet(req.Text, req.Query, req.Terms)
	writeJSON(w, http.StatusOK, SnippetResponse{Snippet: snip, HTML: html})
}

// Reload handles POST /admin/reload. A failed reload keeps the previous session.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	if err := s.search.Reload(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	records, _ := s.search.Loaded()
	s.logger.Info("Session reloaded via API", zap.Int("records", records))
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Records: report.Records,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindQuery binds an optional form-style query parameter, leaving dest untouched when absent.
func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	return nil
}

func bindPath(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	return nil
}
