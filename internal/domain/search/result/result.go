package result

import (
	"strings"

	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
)

// Score constants shared by the scorer and the orderer.
const (
	// ExactPhraseBoost dominates every other additive signal.
	ExactPhraseBoost = 50000
	// SectionIntentScore is forced onto the record whose anchor is the requested section.
	SectionIntentScore = 200000
	// ChapterIntentScore is forced onto records in the requested chapter.
	ChapterIntentScore = 100000
)

// Card is one scored record for one query. Cards are allocated per query and never shared,
// so records stay read-only while many queries run.
type Card struct {
	Record    *corpus.Record
	Score     float64
	Exact     bool
	Tier      int
	Section   bool
	Chapter   bool
	Tags      []string
	Rationale []string
}

// New creates a card for rec with its tier precomputed.
func New(rec *corpus.Record) *Card {
	return &Card{Record: rec, Tier: rec.Tier()}
}

// RationaleText joins the fired rules in firing order.
func (c *Card) RationaleText() string {
	return strings.Join(c.Rationale, "; ")
}

// CategoryScore is the bonus-adjusted score used to rank categories against each other.
func (c *Card) CategoryScore() float64 {
	s := c.Score
	if c.Exact {
		s += ExactPhraseBoost
	}
	if c.Section {
		s += 100000
	}
	if c.Chapter {
		s += 20000
	}
	return s
}

// ExactFirst returns exact-phrase cards followed by the rest, both in input order, capped at limit.
func ExactFirst(cards []*Card, limit int) []*Card {
	out := make([]*Card, 0, min(limit, len(cards)))
	for _, c := range cards {
		if len(out) >= limit {
			return out
		}
		if c.Exact {
			out = append(out, c)
		}
	}
	for _, c := range cards {
		if len(out) >= limit {
			return out
		}
		if !c.Exact {
			out = append(out, c)
		}
	}
	return out
}
