// Package rank orders scored cards and categories.
package rank

import (
	"sort"

	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/search/result"
)

// Intents carries the structured intents that take part in ordering.
type Intents struct {
	Section bool
	Chapter bool
}

// Sort orders cards in place:
// section-intent match → chapter-intent match → exact phrase → score desc → tier asc →
// corpus → heading. The intent flags are only consulted when the intent was parsed.
func Sort(cards []*result.Card, in Intents) {
	sort.SliceStable(cards, func(i, j int) bool {
		return less(cards[i], cards[j], in)
	})
}

func less(a, b *result.Card, in Intents) bool {
	if in.Section && a.Section != b.Section {
		return a.Section
	}
	if in.Chapter && a.Chapter != b.Chapter {
		return a.Chapter
	}
	if a.Exact != b.Exact {
		return a.Exact
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	if a.Record.Corpus != b.Record.Corpus {
		return a.Record.Corpus < b.Record.Corpus
	}
	return a.Record.Heading < b.Record.Heading
}

// SortWithinCategory orders one category bucket: exact → score desc → tier asc.
func SortWithinCategory(cards []*result.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.Exact != b.Exact {
			return a.Exact
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Tier < b.Tier
	})
}

// SortAuthorityFirst orders exact → tier asc → score desc. Used by separation lookups where
// the authoritative chapter outranks raw relevance.
func SortAuthorityFirst(cards []*result.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.Exact != b.Exact {
			return a.Exact
		}
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		return a.Score > b.Score
	})
}

type categoryStats struct {
	count int
	best  float64
}

// CategoryOrder orders configured categories for a search result set: best bonus-adjusted
// card score desc, then match count desc, then workflow order. Categories without matches
// are omitted. Cards without a primary category do not count.
func CategoryOrder(cards []*result.Card, cats concept.Categories) []string {
	stats := make(map[string]*categoryStats)
	for _, c := range cards {
		id := c.Record.PrimaryCategoryID
		if id == "" {
			continue
		}
		s := c.CategoryScore()
		st, ok := stats[id]
		if !ok {
			stats[id] = &categoryStats{count: 1, best: s}
			continue
		}
		st.count++
		if s > st.best {
			st.best = s
		}
	}

	ids := make([]string, 0, len(stats))
	for _, id := range cats.IDs() {
		if _, ok := stats[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := stats[ids[i]], stats[ids[j]]
		if a.best != b.best {
			return a.best > b.best
		}
		if a.count != b.count {
			return a.count > b.count
		}
		return cats.Position(ids[i]) < cats.Position(ids[j])
	})
	return ids
}

// Bucket is one category with its cards. Total counts the cards before any display cap.
type Bucket struct {
	CategoryID string
	Label      string
	Cards      []*result.Card
	Total      int
}

// Group buckets ranked cards by category. In search mode the order comes from CategoryOrder;
// otherwise workflow order is used. OTHER trails when present.
func Group(cards []*result.Card, cats concept.Categories, searching bool) []Bucket {
	byID := make(map[string][]*result.Card)
	for _, c := range cards {
		id := cats.Bucket(c.Record.PrimaryCategoryID)
		byID[id] = append(byID[id], c)
	}

	order := cats.IDs()
	if searching {
		order = CategoryOrder(cards, cats)
	}
	if _, ok := byID[concept.OtherCategoryID]; ok {
		order = append(order, concept.OtherCategoryID)
	}

	buckets := make([]Bucket, 0, len(order))
	for _, id := range order {
		list := byID[id]
		if len(list) == 0 {
			continue
		}
		SortWithinCategory(list)
		buckets = append(buckets, Bucket{CategoryID: id, Label: cats.Label(id), Cards: list, Total: len(list)})
	}
	return buckets
}

// SortBrowse orders records for browse mode: tier → corpus rank → location → heading.
func SortBrowse(recs []*corpus.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if ta, tb := a.Tier(), b.Tier(); ta != tb {
			return ta < tb
		}
		if ra, rb := a.Corpus.Rank(), b.Corpus.Rank(); ra != rb {
			return ra < rb
		}
		if la, lb := a.Location(), b.Location(); la != lb {
			return la < lb
		}
		return a.Heading < b.Heading
	})
}
