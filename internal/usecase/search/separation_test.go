package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/civiccompass/internal/domain"
	"github.com/kailas-cloud/civiccompass/internal/usecase/separation"
)

func TestSeparation_RequiresBothUtilities(t *testing.T) {
	svc, rec := newTestService(t, Options{})
	resp, err := svc.Separation(context.Background(), "gas", "water", "H", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Hits) != 1 || resp.Hits[0].Record.Anchor != "4.06(A)" {
		t.Fatalf("hits = %v", headings(resp.Hits))
	}
	if resp.Lookup.Orientation != separation.Horizontal {
		t.Errorf("Orientation = %q", resp.Lookup.Orientation)
	}
	if resp.Hits[0].SnippetHTML == "" {
		t.Error("snippet not rendered")
	}
	last := rec.queries[len(rec.queries)-1]
	if last.mode != ModeSeparation || last.results != 1 {
		t.Errorf("observation = %+v", last)
	}
}

func TestSeparation_CorpusFilter(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	resp, err := svc.Separation(context.Background(), "GAS", "WATER", "", "BRC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Hits) != 0 {
		t.Errorf("hits = %v, want none outside DCS", headings(resp.Hits))
	}
}

func TestSeparation_InvalidInput(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	tests := []struct {
		name                    string
		newID, existing, orient string
		corpus                  string
	}{
		{"unknown utility", "STEAM", "GAS", "H", ""},
		{"unknown orientation", "GAS", "WATER", "diagonal", ""},
		{"unknown corpus", "GAS", "WATER", "V", "IBC"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Separation(context.Background(), tc.newID, tc.existing, tc.orient, tc.corpus)
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}
