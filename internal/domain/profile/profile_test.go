package profile

import (
	"encoding/json"
	"testing"
)

func TestProfile_DecodeKeepsKeywordOrder(t *testing.T) {
	raw := `{
		"weights": {"heading_phrase": 80},
		"stopwords": ["The", "of"],
		"surface_keywords": {"Sidewalk": ["sidewalk"], "Alley": ["alley"], "Roadway": ["street", "sidewalk"]},
		"off_topic_penalty": 0
	}`
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if p.HeadingPhraseWeight() != 80 {
		t.Errorf("HeadingPhraseWeight() = %v", p.HeadingPhraseWeight())
	}
	if p.TextPhraseWeight() != DefaultTextPhrase {
		t.Errorf("TextPhraseWeight() = %v", p.TextPhraseWeight())
	}
	if p.OffTopicPenaltyValue() != 0 {
		t.Errorf("explicit zero penalty lost: %v", p.OffTopicPenaltyValue())
	}
	if _, ok := p.StopwordSet()["the"]; !ok {
		t.Error("stopwords not lowercased")
	}

	rules := p.Surface().Rules()
	want := []string{"Sidewalk", "Alley", "Roadway"}
	if len(rules) != len(want) {
		t.Fatalf("rules = %d, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.Label != want[i] {
			t.Errorf("rule[%d] = %q, want %q", i, r.Label, want[i])
		}
	}
}

func TestClassifier_FirstLabelWins(t *testing.T) {
	c := NewClassifier(newTable(t, `{"Sidewalk": ["sidewalk"], "Roadway": ["street", "sidewalk"]}`))

	if got := c.Classify("Sidewalk along the street"); got != "Sidewalk" {
		t.Errorf("Classify() = %q, want Sidewalk", got)
	}
	if got := c.Classify("street only"); got != "Roadway" {
		t.Errorf("Classify() = %q, want Roadway", got)
	}
	if got := c.Classify("alley"); got != "" {
		t.Errorf("Classify() = %q, want empty", got)
	}
	if got := c.MatchAll("sidewalk"); len(got) != 2 {
		t.Errorf("MatchAll() = %v", got)
	}
}

func TestClassifier_NilTable(t *testing.T) {
	if got := Empty().Phase().Classify("restore"); got != "" {
		t.Errorf("Classify() = %q on empty profile", got)
	}
}

func newTable(t *testing.T, raw string) *KeywordTable {
	t.Helper()
	var p struct {
		T *KeywordTable `json:"t"`
	}
	if err := json.Unmarshal([]byte(`{"t":`+raw+`}`), &p); err != nil {
		t.Fatalf("unmarshal table: %v", err)
	}
	return p.T
}
