package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/mode"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
	"github.com/kailas-cloud/civiccompass/internal/usecase/query"
	"github.com/kailas-cloud/civiccompass/internal/usecase/rank"
	"github.com/kailas-cloud/civiccompass/internal/usecase/score"
	"github.com/kailas-cloud/civiccompass/internal/usecase/separation"
)

// SeparationResponse is the outcome of one utility separation lookup.
type SeparationResponse struct {
	Lookup       separation.Lookup
	Query        string
	Hits         []Hit
	ConceptTerms []string
}

// Separation finds the passages most likely to state the required separation between a new
// and an existing utility.
func (s *Service) Separation(
	ctx context.Context, newID, existingID, orientation, corpusName string,
) (*SeparationResponse, error) {
	sess, err := s.Session()
	if err != nil {
		return nil, err
	}
	lookup, err := separation.NewLookup(newID, existingID, orientation)
	if err != nil {
		return nil, err
	}
	c, err := corpus.ParseCorpus(corpusName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	start := time.Now()
	q := query.Expand(lookup.Query())
	an := sess.analyzer.AnalyzeExpanded(q)
	opts := score.Options{Corpus: c, MinHit: mode.Any}

	cards, err := s.scoreAll(ctx, sess, func(rec *corpus.Record) *result.Card {
		card := sess.scorer.Score(rec, an, opts)
		if card == nil || !lookup.Eligible(rec) {
			return nil
		}
		card.Score += lookup.Boost(rec)
		return card
	})
	if err != nil {
		return nil, err
	}
	rank.SortAuthorityFirst(cards)

	terms := an.ConceptTerms()
	s.observe(ModeSeparation, start, len(cards))
	return &SeparationResponse{
		Lookup:       lookup,
		Query:        q,
		Hits:         s.hits(result.ExactFirst(cards, separation.TopN), q, terms),
		ConceptTerms: terms,
	}, nil
}

// Utilities returns the selectable utilities.
func (s *Service) Utilities() []separation.Utility {
	return separation.Utilities()
}
