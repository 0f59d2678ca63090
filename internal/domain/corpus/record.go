// Package corpus defines the indexed excerpt records and their structural locators.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Corpus identifies one of the source document collections.
type Corpus string

// Known corpora.
const (
	DCS    Corpus = "DCS"
	BRC    Corpus = "BRC"
	Title9 Corpus = "TITLE9"
)

// ParseCorpus normalizes a user-supplied corpus name. "TITLE 9" is accepted as an alias.
// Empty and "ALL" yield the empty corpus (no restriction).
func ParseCorpus(s string) (Corpus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ALL":
		return "", nil
	case "DCS":
		return DCS, nil
	case "BRC":
		return BRC, nil
	case "TITLE9", "TITLE 9":
		return Title9, nil
	default:
		return "", fmt.Errorf("unknown corpus %q", s)
	}
}

// Rank is the browse-mode corpus order: DCS, then Title 9, then BRC.
func (c Corpus) Rank() int {
	switch c {
	case DCS:
		return 0
	case Title9:
		return 1
	case BRC:
		return 2
	default:
		return 3
	}
}

// FlexInt decodes a JSON number or numeric string. Anything else decodes to zero.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode numeric string: %w", err)
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*n = 0
			return nil
		}
		*n = FlexInt(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode number: %w", err)
	}
	*n = FlexInt(int(f))
	return nil
}

// Path is the structural locator: chapter for DCS/TITLE9, title for BRC.
type Path struct {
	Chapter FlexInt `json:"chapter,omitempty"`
	Title   FlexInt `json:"title,omitempty"`
}

// Record is one addressable excerpt of a source document.
// Records are annotated once at load and are read-only afterwards.
type Record struct {
	Corpus   Corpus `json:"corpus"`
	Path     Path   `json:"path"`
	Anchor   string `json:"anchor"`
	Heading  string `json:"heading"`
	Text     string `json:"text"`
	Snippet  string `json:"snippet,omitempty"`
	File     string `json:"file"`
	RecIndex int    `json:"rec_index"`

	// Derived at annotation.
	PrimaryCategoryID string   `json:"-"`
	Concepts          []string `json:"-"`
}

// Body returns the indexable text, falling back to the snippet.
func (r *Record) Body() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Snippet
}

// HasConcept reports whether the record was annotated with conceptID.
func (r *Record) HasConcept(conceptID string) bool {
	for _, c := range r.Concepts {
		if c == conceptID {
			return true
		}
	}
	return false
}

// Chapter returns the structural chapter for chapter-addressed corpora, 0 otherwise.
func (r *Record) Chapter() int {
	if r.Corpus == DCS || r.Corpus == Title9 {
		return int(r.Path.Chapter)
	}
	return 0
}

var dcsChapterRe = regexp.MustCompile(`(?i)\bdcs[_-]?ch(\d{1,2})\b`)

// dcsChapter resolves the DCS chapter from the structural path, then from the chunk file name.
func (r *Record) dcsChapter() int {
	if r.Path.Chapter > 0 {
		return int(r.Path.Chapter)
	}
	m := dcsChapterRe.FindStringSubmatch(r.File)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Tier is the corpus-authority prior: 0 is most authoritative, 3 least.
//
//	DCS 4, 9          -> 0
//	DCS 5, 6, 7, 8    -> 1
//	DCS 1, 2, 3, 10   -> 2 (also unknown DCS chapters)
//	BRC, TITLE9       -> 3
func (r *Record) Tier() int {
	if r.Corpus != DCS {
		return 3
	}
	switch r.dcsChapter() {
	case 4, 9:
		return 0
	case 5, 6, 7, 8:
		return 1
	default:
		return 2
	}
}

// Location is the short location label used in badges and browse ordering.
func (r *Record) Location() string {
	switch r.Corpus {
	case DCS:
		return fmt.Sprintf("DCS Ch %d", r.Path.Chapter)
	case BRC:
		return fmt.Sprintf("BRC Title %02d", r.Path.Title)
	case Title9:
		return fmt.Sprintf("Title 9 Ch %d", r.Path.Chapter)
	default:
		return string(r.Corpus)
	}
}

// ReaderLabel is the read-through header for the chunk the record belongs to.
func (r *Record) ReaderLabel() string {
	switch r.Corpus {
	case DCS:
		return fmt.Sprintf("DCS — Chapter %d", r.Path.Chapter)
	case BRC:
		return fmt.Sprintf("BRC — Title %02d", r.Path.Title)
	case Title9:
		return fmt.Sprintf("Title 9 — Chapter %d", r.Path.Chapter)
	default:
		if r.Corpus == "" {
			return "Reader"
		}
		return string(r.Corpus)
	}
}
