// Package query analyzes free-text queries: expansion, structured intents, concepts,
// tokens, topics and surface/phase labels.
package query

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/profile"
)

// ConceptMatch is the longest term of a concept found in the query.
type ConceptMatch struct {
	ConceptID string
	TermNorm  string
	TermRaw   string
}

// Analysis is everything derived from one query. It is immutable once built.
type Analysis struct {
	// Query is the lowercased, trimmed, expanded query.
	Query    string
	Norm     string
	Tokens   []string
	Section  *SectionIntent
	Chapter  int
	Topics   []string
	Concepts []string
	Matches  []ConceptMatch
	Surface  string
	Phase    string
	Locates  bool
}

// HasConcept reports whether conceptID was detected in the query.
func (a *Analysis) HasConcept(conceptID string) bool {
	for _, c := range a.Concepts {
		if c == conceptID {
			return true
		}
	}
	return false
}

// ConceptTerms returns the matched raw terms, longest first, for snippet centering.
func (a *Analysis) ConceptTerms() []string {
	terms := make([]string, len(a.Matches))
	for i, m := range a.Matches {
		terms[i] = m.TermRaw
	}
	return terms
}

// Analyzer is bound to one concept index and profile.
type Analyzer struct {
	index   *concept.Index
	stop    map[string]struct{}
	intents profile.Classifier
	surface profile.Classifier
	phase   profile.Classifier
}

// NewAnalyzer creates an analyzer. A nil profile behaves as an empty one.
func NewAnalyzer(idx *concept.Index, p *profile.Profile) *Analyzer {
	if p == nil {
		p = profile.Empty()
	}
	if idx == nil {
		idx = concept.NewIndex(nil)
	}
	return &Analyzer{
		index:   idx,
		stop:    p.StopwordSet(),
		intents: p.Intents(),
		surface: p.Surface(),
		phase:   p.Phase(),
	}
}

// Analyze expands q and runs every detector on it.
func (a *Analyzer) Analyze(q string) *Analysis {
	return a.AnalyzeExpanded(Expand(q))
}

// AnalyzeExpanded runs the detectors on an already expanded query.
func (a *Analyzer) AnalyzeExpanded(q string) *Analysis {
	an := &Analysis{
		Query:   q,
		Norm:    concept.Normalize(q),
		Tokens:  a.Tokenize(q),
		Section: ParseSection(q),
		Topics:  a.Topics(q),
		Surface: a.surface.Classify(q),
		Phase:   a.phase.Classify(q),
		Locates: IsLocates(q),
	}
	if ch, ok := ParseChapter(q); ok {
		an.Chapter = ch
	}
	an.Concepts, an.Matches = a.DetectConcepts(q)
	return an
}

// DetectConcepts scans the normalized query against the longest-first term list and keeps,
// per concept, the longest matching term. Matches are ordered longest first.
func (a *Analyzer) DetectConcepts(q string) ([]string, []ConceptMatch) {
	qn := concept.Normalize(q)
	if qn == "" {
		return nil, nil
	}

	var (
		order []string
		best  = make(map[string]ConceptMatch)
	)
	for _, t := range a.index.Scan() {
		if !strings.Contains(qn, t.Norm) {
			continue
		}
		prev, seen := best[t.ConceptID]
		if !seen {
			order = append(order, t.ConceptID)
		}
		if !seen || len(t.Norm) > len(prev.TermNorm) {
			best[t.ConceptID] = ConceptMatch{ConceptID: t.ConceptID, TermNorm: t.Norm, TermRaw: t.Raw}
		}
	}

	matches := make([]ConceptMatch, 0, len(order))
	for _, id := range order {
		matches = append(matches, best[id])
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return len(matches[i].TermNorm) > len(matches[j].TermNorm)
	})

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ConceptID
	}
	return ids, matches
}

// Tokenize lowercases q, splits on whitespace, keeps [a-z0-9-.()] and drops stopwords.
func (a *Analyzer) Tokenize(q string) []string {
	return Tokenize(q, a.stop)
}

// Tokenize is the analyzer-free form of Analyzer.Tokenize.
func Tokenize(q string, stop map[string]struct{}) []string {
	fields := strings.Fields(strings.ToLower(q))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				return r
			case r == '-', r == '.', r == '(', r == ')':
				return r
			default:
				return -1
			}
		}, f)
		if t == "" {
			continue
		}
		if _, skip := stop[t]; skip {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// Topics returns every configured topic with a keyword inside the lowercased query.
func (a *Analyzer) Topics(q string) []string {
	return a.intents.MatchAll(q)
}

// ClassifySurface returns the first surface label hitting hay.
func (a *Analyzer) ClassifySurface(hay string) string { return a.surface.Classify(hay) }

// ClassifyPhase returns the first phase label hitting hay.
func (a *Analyzer) ClassifyPhase(hay string) string { return a.phase.Classify(hay) }
