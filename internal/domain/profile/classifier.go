package profile

import "strings"

// Matcher reports whether a lowercased haystack carries a label.
type Matcher func(hay string) bool

// Rule is one label with its matcher.
type Rule struct {
	Label string
	Match Matcher
}

// Classifier is an ordered list of label rules built from a keyword table.
// The first matching label wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds substring matchers in the table's declared order. A nil table yields
// a classifier that never matches.
func NewClassifier(table *KeywordTable) Classifier {
	if table == nil {
		return Classifier{}
	}
	rules := make([]Rule, 0, table.Len())
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		rules = append(rules, Rule{Label: pair.Key, Match: anySubstring(pair.Value)})
	}
	return Classifier{rules: rules}
}

// Rules returns the rules in evaluation order.
func (c Classifier) Rules() []Rule { return c.rules }

// Classify returns the first label whose keywords hit hay, or "".
func (c Classifier) Classify(hay string) string {
	h := strings.ToLower(hay)
	for _, r := range c.rules {
		if r.Match(h) {
			return r.Label
		}
	}
	return ""
}

// MatchAll returns every label whose keywords hit hay, in declared order.
func (c Classifier) MatchAll(hay string) []string {
	h := strings.ToLower(hay)
	var labels []string
	for _, r := range c.rules {
		if r.Match(h) {
			labels = append(labels, r.Label)
		}
	}
	return labels
}

func anySubstring(keywords []string) Matcher {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k == "" {
			continue
		}
		lowered = append(lowered, strings.ToLower(k))
	}
	return func(hay string) bool {
		for _, k := range lowered {
			if strings.Contains(hay, k) {
				return true
			}
		}
		return false
	}
}
