// Package annotate assigns concepts and a primary category to corpus records.
package annotate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
)

// headingBonus lifts any heading hit above every body-only hit.
const headingBonus = 1000

// Result is the annotation of one record.
type Result struct {
	PrimaryCategoryID string
	Concepts          []string
}

// Annotator matches records against a concept index.
type Annotator struct {
	index *concept.Index
}

// New creates an annotator over idx.
func New(idx *concept.Index) *Annotator {
	return &Annotator{index: idx}
}

// Match computes the annotation of rec without modifying it.
//
// Per concept, terms are scanned longest-first: a heading hit stops the scan, a body hit keeps
// scanning in case a heading hit follows. The concept score is the longest hit length plus
// headingBonus when any hit was in the heading. The first concept reaching the maximum score
// supplies the primary category. Every concept with a hit is listed.
func (a *Annotator) Match(rec *corpus.Record) Result {
	head := concept.Normalize(rec.Heading)
	hay := concept.Normalize(rec.Anchor + " " + rec.Heading + " " + rec.Body())

	var (
		best      = -1
		bestEntry concept.Entry
		hits      []string
	)
	for _, e := range a.index.Entries() {
		localBest := 0
		inHeading := false
		for _, tn := range e.TermNorms {
			if head != "" && strings.Contains(head, tn) {
				inHeading = true
				localBest = max(localBest, len(tn))
				break
			}
			if strings.Contains(hay, tn) {
				localBest = max(localBest, len(tn))
			}
		}
		if localBest == 0 {
			continue
		}
		hits = append(hits, e.ConceptID)
		score := localBest
		if inHeading {
			score += headingBonus
		}
		if score > best {
			best = score
			bestEntry = e
		}
	}

	res := Result{Concepts: hits}
	if best >= 0 {
		res.PrimaryCategoryID = bestEntry.PrimaryCategoryID
	}
	return res
}

// Annotate writes the annotation onto rec.
func (a *Annotator) Annotate(rec *corpus.Record) {
	res := a.Match(rec)
	rec.PrimaryCategoryID = res.PrimaryCategoryID
	rec.Concepts = res.Concepts
}

// All annotates every record, fanning out over workers goroutines when workers > 1.
// Each record is written by exactly one goroutine.
func (a *Annotator) All(ctx context.Context, records []*corpus.Record, workers int) error {
	if workers <= 1 || len(records) < workers {
		for _, rec := range records {
			a.Annotate(rec)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, part := range partition(len(records), workers) {
		g.Go(func() error {
			for _, rec := range records[part.lo:part.hi] {
				if err := ctx.Err(); err != nil {
					return err
				}
				a.Annotate(rec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("annotate records: %w", err)
	}
	return nil
}

type span struct{ lo, hi int }

func partition(n, parts int) []span {
	size := (n + parts - 1) / parts
	spans := make([]span, 0, parts)
	for lo := 0; lo < n; lo += size {
		spans = append(spans, span{lo: lo, hi: min(lo+size, n)})
	}
	return spans
}
