// Package corpus loads the corpus index, vocabulary and profile from the site data directory.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	domcorpus "github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
	"github.com/kailas-cloud/civiccompass/internal/domain/profile"
)

// Files names the documents inside the data directory.
type Files struct {
	Index      string
	Concepts   string
	Categories string
	Profile    string
	Terms      string
	Drawings   string
}

// DefaultFiles returns the stock document names.
func DefaultFiles() Files {
	return Files{
		Index:      "cross_corpus_index.json",
		Concepts:   "concepts.json",
		Categories: "categories.json",
		Profile:    "inspector_profile.json",
		Terms:      "inspector_terms.json",
		Drawings:   "technical_drawings.json",
	}
}

// reader is the consumer interface for site file access (ISP).
type reader interface {
	ReadFile(name string) ([]byte, error)
}

// Loader reads a dataset. Every document degrades independently; only the index is required.
type Loader struct {
	fs     reader
	dir    string
	files  Files
	logger *zap.Logger
}

// NewLoader creates a loader reading files under dir of the site root.
func NewLoader(fs reader, dir string, files Files, logger *zap.Logger) *Loader {
	return &Loader{fs: fs, dir: dir, files: files, logger: logger}
}

// Load reads all documents concurrently.
func (l *Loader) Load(ctx context.Context) (*dataset.Dataset, error) {
	start := time.Now()
	ds := &dataset.Dataset{Profile: profile.Empty()}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := l.loadIndex()
		if err != nil {
			return err
		}
		ds.Records = recs
		return nil
	})
	g.Go(func() error {
		var doc conceptsDoc
		if l.optional(l.files.Concepts, &doc) {
			ds.Concepts = doc.Concepts
		}
		return nil
	})
	g.Go(func() error {
		var doc categoriesDoc
		if l.optional(l.files.Categories, &doc) {
			ds.Categories = doc.Categories
		}
		return nil
	})
	g.Go(func() error {
		var p profile.Profile
		if l.optional(l.files.Profile, &p) {
			ds.Profile = &p
		}
		return nil
	})
	g.Go(func() error {
		var doc termsDoc
		if l.optional(l.files.Terms, &doc) {
			ds.Terms = dataset.Terms{Common: doc.Common, Synonyms: doc.Synonyms}
		}
		return nil
	})
	g.Go(func() error {
		var doc drawingsDoc
		if l.optional(l.files.Drawings, &doc) {
			ds.Drawings = drawingsFrom(doc.Items)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.Info("Dataset loaded",
		zap.Int("records", len(ds.Records)),
		zap.Int("concepts", len(ds.Concepts)),
		zap.Int("categories", len(ds.Categories)),
		zap.Int("common_terms", len(ds.Terms.Common)),
		zap.Int("drawings", len(ds.Drawings)),
		zap.Duration("duration", time.Since(start)),
	)
	return ds, nil
}

func (l *Loader) loadIndex() ([]*domcorpus.Record, error) {
	name := l.path(l.files.Index)
	data, err := l.fs.ReadFile(name)
	if err != nil {
		l.logger.Error("Failed to load corpus index", zap.String("file", name), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}

	var doc indexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		l.logger.Error("Corpus index is not valid JSON", zap.String("file", name), zap.Error(err))
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrIndexUnavailable, name, err)
	}

	recs := make([]*domcorpus.Record, 0, len(doc.Records))
	for _, r := range doc.Records {
		if r != nil {
			recs = append(recs, r)
		}
	}
	if len(recs) == 0 {
		l.logger.Error("Corpus index has no records", zap.String("file", name))
		return nil, fmt.Errorf("%w: %s has no records", domain.ErrIndexUnavailable, name)
	}
	return recs, nil
}

// drawingsFrom keeps the items that name a file, in document order.
func drawingsFrom(items []*dataset.Drawing) []dataset.Drawing {
	out := make([]dataset.Drawing, 0, len(items))
	for _, d := range items {
		if d == nil || strings.TrimSpace(d.File) == "" {
			continue
		}
		out = append(out, *d)
	}
	return out
}

// optional decodes an optional document into dst. Failures are logged and reported as false.
func (l *Loader) optional(file string, dst any) bool {
	if file == "" {
		return false
	}
	name := l.path(file)
	data, err := l.fs.ReadFile(name)
	if err != nil {
		l.logger.Warn("Optional document unavailable", zap.String("file", name), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		l.logger.Warn("Optional document malformed", zap.String("file", name), zap.Error(err))
		return false
	}
	return true
}

func (l *Loader) path(file string) string {
	if l.dir == "" || strings.HasPrefix(file, "/") {
		return file
	}
	return path.Join(l.dir, file)
}
