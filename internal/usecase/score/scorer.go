// Package score implements the minimum-evidence gate and the additive relevance score.
package score

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/profile"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/mode"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	"github.com/kailas-cloud/civiccompass/internal/usecase/query"
)

// Fixed signal values.
const (
	maxTokenBonus   = 40
	tokenHitBonus   = 6
	locatesBonus    = 60
	locatesPenalty  = 35
	surfaceBonus    = 20
	phaseBonus      = 15
	proximityWindow = 40

	minExactLen  = 3
	minPhraseLen = 4
)

// DefaultLocatesCategory is the category that owns locate and marking content.
const DefaultLocatesCategory = "cat-02"

// softStopwords are generic regulatory words that never count as salient evidence.
var softStopwords = map[string]struct{}{
	"utility": {}, "utilities": {}, "system": {}, "systems": {}, "standard": {}, "standards": {},
	"requirement": {}, "requirements": {}, "spec": {}, "specs": {}, "specification": {},
	"specifications": {}, "general": {}, "section": {}, "chapter": {}, "title": {}, "code": {},
}

// Options scope one scoring pass.
type Options struct {
	// Corpus restricts candidates; empty means all corpora.
	Corpus corpus.Corpus
	// MinHit selects the minimum-evidence policy; empty means mode.All.
	MinHit mode.Mode
}

// Scorer is a pure function of (record, analysis, options) over an immutable profile.
type Scorer struct {
	profile         *profile.Profile
	index           *concept.Index
	surface         profile.Classifier
	phase           profile.Classifier
	locatesCategory string
}

// New creates a scorer. A nil profile behaves as an empty one.
func New(idx *concept.Index, p *profile.Profile, locatesCategory string) *Scorer {
	if p == nil {
		p = profile.Empty()
	}
	if idx == nil {
		idx = concept.NewIndex(nil)
	}
	if locatesCategory == "" {
		locatesCategory = DefaultLocatesCategory
	}
	return &Scorer{
		profile:         p,
		index:           idx,
		surface:         p.Surface(),
		phase:           p.Phase(),
		locatesCategory: locatesCategory,
	}
}

// haystacks are the lowercased views of one record.
type haystacks struct {
	heading string
	text    string
	all     string
}

func newHaystacks(rec *corpus.Record) haystacks {
	heading := strings.ToLower(rec.Heading)
	text := strings.ToLower(rec.Body())
	return haystacks{
		heading: heading,
		text:    text,
		all:     strings.ToLower(rec.Anchor) + " " + heading + " " + text,
	}
}

// Score returns a fresh card for rec, or nil when rec is filtered out or lacks the minimum
// evidence for an.
func (s *Scorer) Score(rec *corpus.Record, an *query.Analysis, opts Options) *result.Card {
	if opts.Corpus != "" && rec.Corpus != opts.Corpus {
		return nil
	}
	if an == nil || an.Query == "" {
		return nil
	}

	h := newHaystacks(rec)
	phrase := an.Query
	exact := len(an.Norm) >= minExactLen && strings.Contains(concept.Normalize(h.all), an.Norm)

	if !s.hasEvidence(rec, an, h, exact, opts.MinHit) {
		return nil
	}

	card := result.New(rec)
	card.Exact = exact

	card.Score += s.profile.CorpusBoost[string(rec.Corpus)]

	if exact {
		card.Score += result.ExactPhraseBoost
		card.Rationale = append(card.Rationale, "Exact phrase")
	}

	if len(phrase) >= minPhraseLen && strings.Contains(h.heading, phrase) {
		card.Score += s.profile.HeadingPhraseWeight()
		card.Rationale = append(card.Rationale, "Phrase in heading")
	} else if len(phrase) >= minPhraseLen && strings.Contains(h.text, phrase) {
		card.Score += s.profile.TextPhraseWeight()
		card.Rationale = append(card.Rationale, "Phrase in text")
	}

	tokHits := 0
	for _, t := range an.Tokens {
		if strings.Contains(h.all, t) {
			tokHits++
		}
	}
	if tokHits > 0 {
		card.Score += float64(min(maxTokenBonus, tokHits*tokenHitBonus))
	}

	if len(an.Concepts) > 0 {
		conceptHits := 0
		for _, cid := range an.Concepts {
			if rec.HasConcept(cid) {
				conceptHits++
			}
		}
		w := s.profile.ConceptMatchWeight()
		if conceptHits > 0 {
			card.Score += float64(conceptHits) * w * 2
			card.Rationale = append(card.Rationale, fmt.Sprintf("Concept hits: %d", conceptHits))
		} else {
			card.Score -= w
		}
	}

	if an.Locates {
		if rec.PrimaryCategoryID == s.locatesCategory {
			card.Score += locatesBonus
			card.Rationale = append(card.Rationale, "Locates priority")
		} else {
			card.Score -= locatesPenalty
		}
	}

	if len(an.Topics) > 0 {
		onTopic := false
		for _, topic := range an.Topics {
			if query.ContainsAny(h.all, lowerAll(s.profile.TopicGates[topic])) {
				onTopic = true
				card.Score += s.profile.TopicBoost[topic]
			}
		}
		if onTopic {
			card.Rationale = append(card.Rationale, "ROW intent match")
		} else {
			card.Score -= s.profile.OffTopicPenaltyValue()
			card.Rationale = append(card.Rationale, "Off-topic")
		}
	}

	if an.Surface != "" {
		if recSurface := s.surface.Classify(h.all); recSurface == an.Surface {
			card.Score += surfaceBonus
			card.Rationale = append(card.Rationale, "Surface: "+recSurface)
		}
	}
	if an.Phase != "" {
		if recPhase := s.phase.Classify(h.all); recPhase == an.Phase {
			card.Score += phaseBonus
			card.Rationale = append(card.Rationale, "Phase: "+recPhase)
		}
	}

	if withinProximity(h.text, an.Tokens) {
		card.Score += s.profile.ProximityWeight()
		card.Rationale = append(card.Rationale, "Proximity boost")
	}

	card.Tags = s.Tags(rec)
	return card
}

// hasEvidence is the minimum-evidence gate. A false result rejects the record outright.
func (s *Scorer) hasEvidence(
	rec *corpus.Record, an *query.Analysis, h haystacks, exact bool, minHit mode.Mode,
) bool {
	phrase := an.Query
	phraseHit := exact || (len(phrase) >= minExactLen &&
		(strings.Contains(h.heading, phrase) || strings.Contains(h.text, phrase)))

	if minHit == mode.Any {
		if phraseHit {
			return true
		}
		for _, t := range an.Tokens {
			if strings.Contains(h.all, t) {
				return true
			}
		}
		for _, cid := range an.Concepts {
			if rec.HasConcept(cid) {
				return true
			}
		}
		return false
	}

	if phraseHit {
		return true
	}

	salient := salientTokens(an.Tokens)
	if len(salient) == 0 {
		for _, t := range an.Tokens {
			if strings.Contains(h.all, t) {
				return true
			}
		}
		return false
	}

	if an.Locates {
		return query.ContainsAny(h.all, query.LocatesAliases())
	}

	for _, t := range salient {
		if !s.tokenCovered(t, an, h.all) {
			return false
		}
	}
	return true
}

// tokenCovered reports whether hay contains t, or t is a term of a concept detected in the
// query and hay contains any term of that concept.
func (s *Scorer) tokenCovered(t string, an *query.Analysis, hay string) bool {
	if strings.Contains(hay, t) {
		return true
	}
	for _, cid := range s.index.Owners(t) {
		if !an.HasConcept(cid) {
			continue
		}
		for tn := range s.index.TermNorms(cid) {
			if tn != "" && strings.Contains(hay, tn) {
				return true
			}
		}
	}
	return false
}

func salientTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, soft := softStopwords[t]; soft {
			continue
		}
		out = append(out, t)
	}
	return out
}

// withinProximity reports whether at least two token occurrences land in the body words
// and the word-index span between the first and last is within proximityWindow.
func withinProximity(text string, tokens []string) bool {
	if len(tokens) < 2 {
		return false
	}
	lo, hi, n := -1, -1, 0
	for i, w := range strings.Fields(text) {
		for _, t := range tokens {
			if !strings.Contains(w, t) {
				continue
			}
			if lo < 0 {
				lo = i
			}
			hi = i
			n++
		}
	}
	return n >= 2 && hi-lo <= proximityWindow
}

func lowerAll(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = strings.ToLower(v)
	}
	return out
}
