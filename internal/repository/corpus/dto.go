package corpus

import (
	"github.com/kailas-cloud/civiccompass/internal/domain/concept"
	domcorpus "github.com/kailas-cloud/civiccompass/internal/domain/corpus"
	"github.com/kailas-cloud/civiccompass/internal/domain/dataset"
)

type indexDoc struct {
	Records []*domcorpus.Record `json:"records"`
}

type conceptsDoc struct {
	Concepts []concept.Concept `json:"concepts"`
}

type categoriesDoc struct {
	Categories []concept.Category `json:"categories"`
}

type drawingsDoc struct {
	Items []*dataset.Drawing `json:"items"`
}

type termsDoc struct {
	Common   []string            `json:"common"`
	Synonyms map[string][]string `json:"synonyms"`
}
