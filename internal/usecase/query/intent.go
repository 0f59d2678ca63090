package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	fiberRe   = regexp.MustCompile(`\b(?:fiber|fibre)\b`)
	telecomRe = regexp.MustCompile(`\b(?:telecom|telecommunication|communications)\b`)
	sectionRe = regexp.MustCompile(`(?i)\b(?:sec(?:tion)?\.?\s*)?(\d{1,2})-(\d{1,2})-(\d{1,3})\b`)
	chapterRe = regexp.MustCompile(`\bch(?:apter)?\s*0?(\d{1,2})\b`)
)

// Expand lowercases and trims q and bridges legacy terminology: a query mentioning fiber
// without any telecom wording gets "telecom" appended.
func Expand(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return ""
	}
	if fiberRe.MatchString(q) && !telecomRe.MatchString(q) {
		return q + " telecom"
	}
	return q
}

// SectionIntent is a parsed section reference such as "8-5-12".
type SectionIntent struct {
	Section string
}

// ParseSection detects a section reference ("8-5-12", "Sec. 8-5-12", "Section 08-05-012")
// and canonicalizes it by dropping leading zeros. Returns nil when absent.
func ParseSection(q string) *SectionIntent {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	m := sectionRe.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	parts := make([]int, 3)
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return nil
		}
		parts[i] = n
	}
	return &SectionIntent{Section: fmt.Sprintf("%d-%d-%d", parts[0], parts[1], parts[2])}
}

// Matches reports whether anchor is exactly the parsed section.
func (s *SectionIntent) Matches(anchor string) bool {
	if s == nil {
		return false
	}
	a := strings.TrimSpace(anchor)
	return a != "" && a == s.Section
}

// ParseChapter detects "chapter 5", "ch 5", "ch05" or "chapter05" and returns the chapter
// number (1-99). ok is false when absent or out of range.
func ParseChapter(q string) (chapter int, ok bool) {
	m := chapterRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(q)))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 99 {
		return 0, false
	}
	return n, true
}

// locatesAliases mark a query as being about utility locates and field markings.
var locatesAliases = []string{
	"811", "one call", "one-call", "locate", "locates", "marking", "markings", "markout",
	"paint", "flags", "flag", "white paint", "blue paint", "red paint", "orange paint",
	"green paint", "purple paint",
}

// LocatesAliases returns the locate/marking alias list.
func LocatesAliases() []string { return locatesAliases }

// IsLocates reports whether the lowercased phrase names any locate/marking alias.
func IsLocates(phrase string) bool {
	return ContainsAny(phrase, locatesAliases)
}

// ContainsAny reports whether any non-empty needle is a substring of hay.
func ContainsAny(hay string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(hay, n) {
			return true
		}
	}
	return false
}
