// Package profile holds the externally configured scoring profile.
package profile

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Default weights applied when the profile omits them.
const (
	DefaultHeadingPhrase   = 50
	DefaultTextPhrase      = 25
	DefaultConceptMatch    = 12
	DefaultProximity       = 15
	DefaultOffTopicPenalty = 18
)

// KeywordTable maps a label to its keyword list, preserving declaration order.
type KeywordTable = orderedmap.OrderedMap[string, []string]

// Weights are the additive weights of the phrase, concept and proximity signals.
// Nil fields fall back to the defaults.
type Weights struct {
	HeadingPhrase *float64 `json:"heading_phrase,omitempty"`
	TextPhrase    *float64 `json:"text_phrase,omitempty"`
	ConceptMatch  *float64 `json:"concept_match,omitempty"`
	Proximity     *float64 `json:"proximity,omitempty"`
}

// Profile is the read-only scoring configuration.
type Profile struct {
	Weights         Weights             `json:"weights"`
	Stopwords       []string            `json:"stopwords"`
	IntentKeywords  *KeywordTable       `json:"intent_keywords,omitempty"`
	SurfaceKeywords *KeywordTable       `json:"surface_keywords,omitempty"`
	PhaseKeywords   *KeywordTable       `json:"phase_keywords,omitempty"`
	TopicGates      map[string][]string `json:"topic_gates,omitempty"`
	TopicBoost      map[string]float64  `json:"topic_boost,omitempty"`
	OffTopicPenalty *float64            `json:"off_topic_penalty,omitempty"`
	CorpusBoost     map[string]float64  `json:"corpus_boost,omitempty"`
}

// Empty returns a profile with no keywords and default weights.
func Empty() *Profile { return &Profile{} }

// HeadingPhraseWeight returns weights.heading_phrase or its default.
func (p *Profile) HeadingPhraseWeight() float64 { return orDefault(p.Weights.HeadingPhrase, DefaultHeadingPhrase) }

// TextPhraseWeight returns weights.text_phrase or its default.
func (p *Profile) TextPhraseWeight() float64 { return orDefault(p.Weights.TextPhrase, DefaultTextPhrase) }

// ConceptMatchWeight returns weights.concept_match or its default.
func (p *Profile) ConceptMatchWeight() float64 { return orDefault(p.Weights.ConceptMatch, DefaultConceptMatch) }

// ProximityWeight returns weights.proximity or its default.
func (p *Profile) ProximityWeight() float64 { return orDefault(p.Weights.Proximity, DefaultProximity) }

// OffTopicPenaltyValue returns off_topic_penalty or its default.
func (p *Profile) OffTopicPenaltyValue() float64 { return orDefault(p.OffTopicPenalty, DefaultOffTopicPenalty) }

// StopwordSet returns the lowercased stopword set.
func (p *Profile) StopwordSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Stopwords))
	for _, s := range p.Stopwords {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}

// Surface returns the surface classifier.
func (p *Profile) Surface() Classifier { return NewClassifier(p.SurfaceKeywords) }

// Phase returns the phase classifier.
func (p *Profile) Phase() Classifier { return NewClassifier(p.PhaseKeywords) }

// Intents returns the topic-intent table as an ordered matcher list.
func (p *Profile) Intents() Classifier { return NewClassifier(p.IntentKeywords) }

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
