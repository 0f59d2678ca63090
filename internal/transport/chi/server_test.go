package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/request"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/civiccompass/internal/usecase/health"
	"github.com/kailas-cloud/civiccompass/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/civiccompass/internal/usecase/search"
	"github.com/kailas-cloud/civiccompass/internal/usecase/separation"
)

// --- Mocks ---

type mockSearcher struct {
	err error

	drawings []dataset.Drawing

	lastReq       *request.Request
	searchResp    *searchuc.Response
	groupCalls    int
	browseArgs    []string
	anchorArgs    []string
	verbatimArgs  []any
	verbatimResp  *searchuc.Verbatim
	verbatimErr   error
	readerArgs    []any
	readerResp    *searchuc.ReaderPage
	readerErr     error
	reloadErr     error
	reloads       int
	separationArg []string
}

func (m *mockSearcher) Search(_ context.Context, req *request.Request) (*searchuc.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.searchResp, nil
}

func (m *mockSearcher) Browse(_ context.Context, corpusName, category string) ([]rank.Bucket, error) {
	m.browseArgs = []string{corpusName, category}
	if m.err != nil {
		return nil, m.err
	}
	return []rank.Bucket{{CategoryID: "cat-05", Label: "Restoration", Total: 1, Cards: []*result.Card{testCard()}}}, nil
}

func (m *mockSearcher) Group(hits []searchuc.Hit) ([]rank.Bucket, error) {
	m.groupCalls++
	cards := make([]*result.Card, len(hits))
	for i, h := range hits {
		cards[i] = h.Card
	}
	return []rank.Bucket{{CategoryID: "cat-05", Label: "Restoration", Total: len(cards), Cards: cards}}, nil
}

func (m *mockSearcher) Categories() ([]concept.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []concept.Category{{ID: "cat-05", Label: "Restoration"}}, nil
}

func (m *mockSearcher) Separation(
	_ context.Context, newID, existingID, orientation, corpusName string,
) (*searchuc.SeparationResponse, error) {
	m.separationArg = []string{newID, existingID, orientation, corpusName}
	lookup, err := separation.NewLookup(newID, existingID, orientation)
	if err != nil {
		return nil, err
	}
	return &searchuc.SeparationResponse{Lookup: lookup, Query: lookup.Query(), Hits: []searchuc.Hit{{Card: testCard()}}}, nil
}

func (m *mockSearcher) Utilities() []separation.Utility { return separation.Utilities() }

func (m *mockSearcher) Pinned(context.Context) ([]searchuc.PinnedCard, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []searchuc.PinnedCard{
		{Pin: searchuc.Pin{Group: "Restoration", Label: "BRC 8-5-12", Corpus: corpus.BRC, Anchor: "8-5-12"}, Card: testCard()},
		{Pin: searchuc.Pin{Group: "Separations", Label: "Parallel", Corpus: corpus.DCS, Anchor: "4.06(A)"}},
	}, nil
}

func (m *mockSearcher) RecordByAnchor(_ context.Context, corpusName, anchor string) (*result.Card, error) {
	m.anchorArgs = []string{corpusName, anchor}
	if m.err != nil {
		return nil, m.err
	}
	return testCard(), nil
}

func (m *mockSearcher) Verbatim(_ context.Context, file string, index int) (*searchuc.Verbatim, error) {
	m.verbatimArgs = []any{file, index}
	return m.verbatimResp, m.verbatimErr
}

func (m *mockSearcher) Reader(_ context.Context, file, q string, offset, limit int) (*searchuc.ReaderPage, error) {
	m.readerArgs = []any{file, q, offset, limit}
	return m.readerResp, m.readerErr
}

func (m *mockSearcher) Suggestions() ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{"backfill", "restoration"}, nil
}

func (m *mockSearcher) Drawings() ([]dataset.Drawing, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.drawings, nil
}

func (m *mockSearcher) Snippet(text, q string, _ []string) (string, string) {
	return text, "<mark>" + q + "</mark>"
}

func (m *mockSearcher) Reload(context.Context) error {
	m.reloads++
	return m.reloadErr
}

func (m *mockSearcher) Loaded() (int, bool) { return 42, true }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func testCard() *result.Card {
	rec := &corpus.Record{
		Corpus:            corpus.BRC,
		Path:              corpus.Path{Title: 8},
		Anchor:            "8-5-12",
		Heading:           "Street Cut Restoration",
		Text:              "Restore the street.",
		File:              "brc_json/brc_t08.json",
		RecIndex:          3,
		PrimaryCategoryID: "cat-05",
	}
	c := result.New(rec)
	c.Score = 120
	c.Rationale = []string{"Heading hit", "Concept match"}
	return c
}

func newTestRouter(s Searcher, h HealthChecker) http.Handler {
	r := chi.NewRouter()
	NewServer(s, h, zap.NewNop()).Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// --- Tests ---

func TestSearch_OK(t *testing.T) {
	hit := searchuc.Hit{Card: testCard(), Snippet: "Restore the street.", SnippetHTML: "<mark>Restore</mark> the street."}
	m := &mockSearcher{searchResp: &searchuc.Response{
		Query:         "restore",
		Hits:          []searchuc.Hit{hit},
		Total:         1,
		Top:           []searchuc.Hit{hit},
		CategoryOrder: []string{"cat-05"},
		ConceptTerms:  []string{"restoration"},
	}}
	rr := do(t, newTestRouter(m, nil), "GET", "/search?q=restore&corpus=brc&limit=20&min_hit=any", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if m.lastReq.Limit() != 20 || m.lastReq.Corpus() != corpus.BRC || m.lastReq.MinHit() != "any" {
		t.Errorf("request not bound: limit=%d corpus=%q min_hit=%q",
			m.lastReq.Limit(), m.lastReq.Corpus(), m.lastReq.MinHit())
	}
	resp := decode[SearchResponse](t, rr)
	if resp.Total != 1 || len(resp.Items) != 1 || len(resp.Top) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	item := resp.Items[0]
	if item.Anchor != "8-5-12" || item.Location != "BRC Title 08" || item.File != "./data/brc/brc_t08.json" {
		t.Errorf("item = %+v", item)
	}
	if item.Rationale != "Heading hit; Concept match" || item.SnippetHTML == "" {
		t.Errorf("item rationale/snippet = %q / %q", item.Rationale, item.SnippetHTML)
	}
	if resp.Buckets != nil || m.groupCalls != 0 {
		t.Error("buckets should only be built when grouped")
	}
}

func TestSearch_Grouped(t *testing.T) {
	hit := searchuc.Hit{Card: testCard(), Snippet: "Restore"}
	m := &mockSearcher{searchResp: &searchuc.Response{Query: "restore", Hits: []searchuc.Hit{hit}, Total: 1}}
	rr := do(t, newTestRouter(m, nil), "GET", "/search?q=restore&grouped=true", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[SearchResponse](t, rr)
	if m.groupCalls != 1 || len(resp.Buckets) != 1 {
		t.Fatalf("groupCalls=%d buckets=%d", m.groupCalls, len(resp.Buckets))
	}
	if got := resp.Buckets[0].Cards[0].Snippet; got != "Restore" {
		t.Errorf("grouped card lost its snippet: %q", got)
	}
}

func TestSearch_Browse(t *testing.T) {
	m := &mockSearcher{searchResp: &searchuc.Response{
		Browse:  true,
		Buckets: []rank.Bucket{{CategoryID: "cat-05", Label: "Restoration", Total: 3, Cards: []*result.Card{testCard()}}},
	}}
	resp := decode[SearchResponse](t, do(t, newTestRouter(m, nil), "GET", "/search", ""))
	if !resp.Browse || len(resp.Buckets) != 1 || resp.Buckets[0].Total != 3 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearch_BadParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"non-numeric limit", "/search?q=x&limit=abc", CodeBadRequest},
		{"non-bool grouped", "/search?q=x&grouped=maybe", CodeBadRequest},
		{"unknown corpus", "/search?q=x&corpus=ZZZ", CodeInvalidQuery},
		{"unknown evidence mode", "/search?q=x&min_hit=some", CodeInvalidQuery},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockSearcher{}
			rr := do(t, newTestRouter(m, nil), "GET", tc.target, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if got := decode[ErrorResponse](t, rr).Code; got != tc.code {
				t.Errorf("code = %q, want %q", got, tc.code)
			}
			if m.lastReq != nil {
				t.Error("service should not be called")
			}
		})
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: category", domain.ErrInvalidQuery), http.StatusBadRequest, CodeInvalidQuery},
		{fmt.Errorf("%w: DCS 1.01", domain.ErrRecordNotFound), http.StatusNotFound, CodeRecordNotFound},
		{domain.NewChunkError("./data/x.json", nil), http.StatusNotFound, CodeChunkNotFound},
		{domain.ErrSessionNotLoaded, http.StatusServiceUnavailable, CodeSessionNotLoaded},
		{fmt.Errorf("%w: missing", domain.ErrIndexUnavailable), http.StatusServiceUnavailable, CodeIndexUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			rr := do(t, newTestRouter(&mockSearcher{err: tc.err}, nil), "GET", "/categories", "")
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			resp := decode[ErrorResponse](t, rr)
			if resp.Code != tc.code {
				t.Errorf("code = %q, want %q", resp.Code, tc.code)
			}
			if strings.Contains(resp.Message, "disk") || strings.Contains(resp.Message, "./data") {
				t.Errorf("message leaks internals: %q", resp.Message)
			}
		})
	}
}

func TestBrowse(t *testing.T) {
	m := &mockSearcher{}
	rr := do(t, newTestRouter(m, nil), "GET", "/browse?corpus=DCS&category=cat-05", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if m.browseArgs[0] != "DCS" || m.browseArgs[1] != "cat-05" {
		t.Errorf("args = %v", m.browseArgs)
	}
	resp := decode[map[string][]Bucket](t, rr)
	if len(resp["buckets"]) != 1 || resp["buckets"][0].Cards[0].Anchor != "8-5-12" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSeparation(t *testing.T) {
	m := &mockSearcher{}
	h := newTestRouter(m, nil)

	rr := do(t, h, "GET", "/separation?new=gas&existing=WATER&orientation=V", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	resp := decode[SeparationResponse](t, rr)
	if resp.New != "GAS" || resp.Existing != "WATER" || resp.Orientation != "V" || len(resp.Items) != 1 {
		t.Errorf("resp = %+v", resp)
	}

	if rr := do(t, h, "GET", "/separation?new=steam&existing=WATER", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown utility: status = %d, want 400", rr.Code)
	}
}

func TestUtilitiesAndPins(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil)

	utils := decode[map[string][]separation.Utility](t, do(t, h, "GET", "/utilities", ""))
	if len(utils["utilities"]) != 6 {
		t.Errorf("utilities = %d", len(utils["utilities"]))
	}

	pins := decode[map[string][]PinResponse](t, do(t, h, "GET", "/pins", ""))["pins"]
	if len(pins) != 2 || pins[0].Card == nil || pins[1].Card != nil {
		t.Errorf("pins = %+v", pins)
	}
}

func TestRecord_PathBinding(t *testing.T) {
	m := &mockSearcher{}
	rr := do(t, newTestRouter(m, nil), "GET", "/records/DCS/4.06%28A%29", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if m.anchorArgs[0] != "DCS" || m.anchorArgs[1] != "4.06(A)" {
		t.Errorf("args = %v", m.anchorArgs)
	}
}

func TestVerbatim(t *testing.T) {
	m := &mockSearcher{verbatimResp: &searchuc.Verbatim{Label: "DCS — Chapter 5", Anchor: "5.02", Text: "Place hot mix."}}
	rr := do(t, newTestRouter(m, nil), "GET", "/verbatim?file=dcs_json/dcs_ch05.json&index=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if m.verbatimArgs[0] != "dcs_json/dcs_ch05.json" || m.verbatimArgs[1] != 1 {
		t.Errorf("args = %v", m.verbatimArgs)
	}
	resp := decode[VerbatimResponse](t, rr)
	if resp.Text != "Place hot mix." || resp.Missing {
		t.Errorf("resp = %+v", resp)
	}
}

func TestVerbatim_MissingIsPlaceholder(t *testing.T) {
	for name, err := range map[string]error{
		"chunk": domain.NewChunkError("./data/dcs/x.json", nil),
		"item":  fmt.Errorf("%w: item 9", domain.ErrRecordNotFound),
	} {
		t.Run(name, func(t *testing.T) {
			m := &mockSearcher{verbatimErr: err}
			rr := do(t, newTestRouter(m, nil), "GET", "/verbatim?file=x.json&index=9", "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			resp := decode[VerbatimResponse](t, rr)
			if !resp.Missing || resp.Text != searchuc.MissingVerbatim {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestVerbatim_RequiredParams(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil)
	for _, target := range []string{"/verbatim?index=1", "/verbatim?file=x.json", "/verbatim?file=x.json&index=one"} {
		if rr := do(t, h, "GET", target, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rr.Code)
		}
	}
}

func TestReader(t *testing.T) {
	m := &mockSearcher{readerResp: &searchuc.ReaderPage{
		Label: "DCS — Chapter 5", Path: "./data/dcs/dcs_ch05.json", Total: 4, Offset: 2,
		Sections: []searchuc.ReaderSection{{Index: 2, Title: "Section 3", HTML: "x"}},
	}}
	rr := do(t, newTestRouter(m, nil), "GET", "/reader?file=dcs_json/dcs_ch05.json&q=lift&offset=2&limit=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if m.readerArgs[1] != "lift" || m.readerArgs[2] != 2 || m.readerArgs[3] != 1 {
		t.Errorf("args = %v", m.readerArgs)
	}
	resp := decode[ReaderResponse](t, rr)
	if resp.Total != 4 || len(resp.Sections) != 1 || resp.Sections[0].Title != "Section 3" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestReader_MissingChunk(t *testing.T) {
	m := &mockSearcher{readerErr: domain.NewChunkError("./data/x.json", nil)}
	rr := do(t, newTestRouter(m, nil), "GET", "/reader?file=x.json", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[ReaderResponse](t, rr)
	if !resp.Missing || len(resp.Sections) != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSuggestions(t *testing.T) {
	resp := decode[map[string][]string](t, do(t, newTestRouter(&mockSearcher{}, nil), "GET", "/suggestions", ""))
	if len(resp["suggestions"]) != 2 {
		t.Errorf("resp = %v", resp)
	}
}

func TestDrawings(t *testing.T) {
	m := &mockSearcher{drawings: []dataset.Drawing{
		{File: "T-101.pdf", Title: "Trench Section"},
		{File: "T-102.pdf"},
	}}
	rr := do(t, newTestRouter(m, nil), "GET", "/drawings", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decode[DrawingsResponse](t, rr)
	if len(resp.Items) != 2 {
		t.Fatalf("items = %+v", resp.Items)
	}
	if resp.Items[0].Title != "Trench Section" || resp.Items[0].Path != "assets/technical-drawings/T-101.pdf" {
		t.Errorf("items[0] = %+v", resp.Items[0])
	}
	if resp.Items[1].Title != "T-102" {
		t.Errorf("items[1] = %+v", resp.Items[1])
	}
}

func TestDrawings_EmptyAndNotLoaded(t *testing.T) {
	rr := do(t, newTestRouter(&mockSearcher{}, nil), "GET", "/drawings", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("empty: status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = do(t, newTestRouter(&mockSearcher{err: domain.ErrSessionNotLoaded}, nil), "GET", "/drawings", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("not loaded: status = %d", rr.Code)
	}
}

func TestSnippet(t *testing.T) {
	h := newTestRouter(&mockSearcher{}, nil)

	rr := do(t, h, "POST", "/snippet", `{"text":"trench backfill","query":"backfill"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[SnippetResponse](t, rr)
	if resp.Snippet != "trench backfill" || resp.HTML != "<mark>backfill</mark>" {
		t.Errorf("resp = %+v", resp)
	}

	if rr := do(t, h, "POST", "/snippet", `{`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d", rr.Code)
	}
}

func TestReload(t *testing.T) {
	m := &mockSearcher{}
	h := newTestRouter(m, nil)

	rr := do(t, h, "POST", "/admin/reload", "")
	if rr.Code != http.StatusOK || m.reloads != 1 {
		t.Fatalf("status = %d reloads = %d", rr.Code, m.reloads)
	}
	if got := decode[map[string]int](t, rr)["records"]; got != 42 {
		t.Errorf("records = %d", got)
	}

	m.reloadErr = fmt.Errorf("%w: gone", domain.ErrIndexUnavailable)
	if rr := do(t, h, "POST", "/admin/reload", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("failed reload: status = %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			h := newTestRouter(&mockSearcher{}, &mockHealth{report: healthuc.Report{
				Status:  tc.status,
				Records: 7,
				Checks:  map[string]healthuc.CheckResult{"corpus": healthuc.CheckOK},
			}})
			rr := do(t, h, "GET", "/health", "")
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			resp := decode[HealthResponse](t, rr)
			if resp.Status != string(tc.status) || resp.Records != 7 || resp.Checks["corpus"] != "ok" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := JSONRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := do(t, h, "GET", "/search", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr).Code; got != CodeInternalError {
		t.Errorf("code = %q", got)
	}
	if logs.Len() != 1 {
		t.Errorf("logged %d entries, want 1", logs.Len())
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(zap.New(core)))
	NewServer(&mockSearcher{}, nil, zap.NewNop()).Register(r)

	rr := do(t, r, "GET", "/suggestions?q=gas", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("http_request entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusOK) || fields["path"] != "/suggestions" || fields["request_id"] == "" {
		t.Errorf("fields = %v", fields)
	}
}
