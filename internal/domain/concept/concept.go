// Package concept holds the concept and category vocabulary and the longest-first term index.
package concept

import (
	"sort"
	"strings"
)

// OtherCategoryID is the implicit bucket for records without a known category.
const OtherCategoryID = "OTHER"

// Concept is a named real-world idea with its free-text surface forms.
type Concept struct {
	ConceptID         string   `json:"conceptId"`
	Terms             []string `json:"terms"`
	PrimaryCategoryID string   `json:"primaryCategoryId"`
}

// Category is a browse bucket. Configuration order is the workflow order.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Term is one entry of the global longest-first scan list.
type Term struct {
	Norm      string
	Raw       string
	ConceptID string
}

// Entry is a concept with its deduplicated, longest-first normalized terms.
type Entry struct {
	Concept
	TermNorms []string
}

// Index is the immutable concept lookup built once per session.
type Index struct {
	entries    []Entry
	byID       map[string]int
	scan       []Term
	termOwners map[string][]string
	termSets   map[string]map[string]struct{}
}

// NewIndex builds the concept index. Blank terms are dropped silently.
func NewIndex(concepts []Concept) *Index {
	idx := &Index{
		entries:    make([]Entry, 0, len(concepts)),
		byID:       make(map[string]int, len(concepts)),
		termOwners: make(map[string][]string),
		termSets:   make(map[string]map[string]struct{}, len(concepts)),
	}

	for _, c := range concepts {
		seen := make(map[string]struct{}, len(c.Terms))
		norms := make([]string, 0, len(c.Terms))
		for _, t := range c.Terms {
			raw := strings.TrimSpace(t)
			if raw == "" {
				continue
			}
			tn := Normalize(raw)
			if tn == "" {
				continue
			}
			idx.scan = append(idx.scan, Term{Norm: tn, Raw: raw, ConceptID: c.ConceptID})
			if _, dup := seen[tn]; dup {
				continue
			}
			seen[tn] = struct{}{}
			norms = append(norms, tn)
		}
		sortLongestFirst(norms)

		if _, dup := idx.byID[c.ConceptID]; !dup {
			idx.byID[c.ConceptID] = len(idx.entries)
		}
		idx.entries = append(idx.entries, Entry{Concept: c, TermNorms: norms})

		set := idx.termSets[c.ConceptID]
		if set == nil {
			set = make(map[string]struct{}, len(norms))
			idx.termSets[c.ConceptID] = set
		}
		for _, tn := range norms {
			set[tn] = struct{}{}
		}
	}

	sort.SliceStable(idx.scan, func(i, j int) bool {
		return len(idx.scan[i].Norm) > len(idx.scan[j].Norm)
	})

	for _, t := range idx.scan {
		owners := idx.termOwners[t.Norm]
		if !containsString(owners, t.ConceptID) {
			idx.termOwners[t.Norm] = append(owners, t.ConceptID)
		}
	}

	return idx
}

// Entries returns the concepts in configuration order.
func (x *Index) Entries() []Entry { return x.entries }

// Len returns the number of concepts.
func (x *Index) Len() int { return len(x.entries) }

// Get returns the concept entry by id.
func (x *Index) Get(conceptID string) (Entry, bool) {
	i, ok := x.byID[conceptID]
	if !ok {
		return Entry{}, false
	}
	return x.entries[i], true
}

// Scan returns the global longest-first term list.
func (x *Index) Scan() []Term { return x.scan }

// Owners returns the concept ids owning the normalized term.
func (x *Index) Owners(termNorm string) []string { return x.termOwners[termNorm] }

// TermNorms returns the normalized term set of a concept.
func (x *Index) TermNorms(conceptID string) map[string]struct{} { return x.termSets[conceptID] }

func sortLongestFirst(s []string) {
	sort.SliceStable(s, func(i, j int) bool { return len(s[i]) > len(s[j]) })
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
