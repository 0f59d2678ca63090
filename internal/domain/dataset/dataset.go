// Package dataset is the loaded corpus: records plus the vocabulary and profile that annotate
// and score them.
package dataset

import (
	"strings"

	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	"github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/profile"
)

// Terms are the suggestion vocabulary.
type Terms struct {
	Common   []string
	Synonyms map[string][]string
}

// Suggestions returns the common terms trimmed and deduplicated case-insensitively, first
// spelling kept.
func (t Terms) Suggestions() []string {
	seen := make(map[string]struct{}, len(t.Common))
	out := make([]string, 0, len(t.Common))
	for _, term := range t.Common {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	return out
}

// DrawingsDir is the site directory holding the technical drawing PDFs.
const DrawingsDir = "assets/technical-drawings"

// Drawing is one technical drawing listed in the drawings document.
type Drawing struct {
	File  string `json:"file"`
	Title string `json:"title"`
}

// Label is the display name: the title, else the file name, without a .pdf suffix.
func (d Drawing) Label() string {
	label := strings.TrimSpace(d.Title)
	if label == "" {
		label = d.File
	}
	if len(label) > 4 && strings.EqualFold(label[len(label)-4:], ".pdf") {
		label = label[:len(label)-4]
	}
	return label
}

// Path is the drawing's location under the site root.
func (d Drawing) Path() string {
	return DrawingsDir + "/" + d.File
}

// Dataset is everything read from disk for one session.
type Dataset struct {
	Records    []*corpus.Record
	Concepts   []concept.Concept
	Categories []concept.Category
	Profile    *profile.Profile
	Terms      Terms
	Drawings   []Drawing
}
