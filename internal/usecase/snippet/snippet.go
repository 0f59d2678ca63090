// Package snippet cuts display windows out of record text and highlights query hits in them.
package snippet

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Window is the snippet width in characters.
const Window = 375

const (
	ellipsis   = "…"
	hitOpen    = "\x00HIT_OPEN\x00"
	hitClose   = "\x00HIT_CLOSE\x00"
	openMarkup = `<span class="hit">`
	closeTag   = `</span>`

	minTermLen   = 4
	minTokenLen  = 3
	minPhraseLen = 3
)

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	nonTokenRe = regexp.MustCompile(`[^a-z0-9\-]+`)
)

// Build returns a window of text centered on the first candidate hit. Candidates are tried in
// order: matched concept terms, the query and its hyphen-free variant, then query tokens.
// Without any hit the leading Window characters are returned.
func Build(text, query string, terms []string) string {
	if text == "" {
		return ""
	}

	lower := lowerRunes(text)
	pos, hitLen := -1, 0
	for _, c := range candidates(query, terms) {
		if i := strings.Index(lower, c); i >= 0 {
			pos = utf8.RuneCountInString(lower[:i])
			hitLen = utf8.RuneCountInString(c)
			break
		}
	}

	if pos < 0 {
		return truncate(collapse(text), Window)
	}

	runes := []rune(text)
	center := pos + hitLen/2
	start := max(0, center-Window/2)
	end := min(len(runes), start+Window)
	start = max(0, end-Window)

	out := collapse(string(runes[start:end]))
	if start > 0 {
		out = ellipsis + out
	}
	if end < len(runes) {
		out += ellipsis
	}
	return out
}

func candidates(query string, terms []string) []string {
	var out []string
	for _, t := range terms {
		v := strings.TrimSpace(lowerRunes(t))
		if utf8.RuneCountInString(v) >= minTermLen {
			out = append(out, v)
		}
	}
	q := strings.TrimSpace(lowerRunes(query))
	if utf8.RuneCountInString(q) >= minTermLen {
		out = append(out, q, strings.ReplaceAll(q, "-", " "))
	}
	return append(out, tokens(q)...)
}

// Highlight HTML-escapes snip and wraps every hit of the query or its tokens in a hit span.
// Markup is only ever produced by the highlighter itself.
func Highlight(snip, query string) string {
	snip = strings.ReplaceAll(snip, "\x00", "")
	q := strings.ToLower(strings.TrimSpace(query))
	if snip == "" || q == "" {
		return escape(snip)
	}

	re := termPattern(q)
	if re == nil {
		return escape(snip)
	}
	marked := re.ReplaceAllStringFunc(snip, func(m string) string {
		return hitOpen + m + hitClose
	})
	out := escape(marked)
	out = strings.ReplaceAll(out, hitOpen, openMarkup)
	return strings.ReplaceAll(out, hitClose, closeTag)
}

// termPattern builds a case-insensitive alternation of the query and its tokens, longest first.
func termPattern(q string) *regexp.Regexp {
	seen := make(map[string]struct{})
	var terms []string
	add := func(t string) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	if utf8.RuneCountInString(q) >= minPhraseLen {
		add(q)
	}
	for _, t := range tokens(q) {
		add(t)
	}
	if len(terms) == 0 {
		return nil
	}
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

func tokens(q string) []string {
	var out []string
	for _, f := range strings.Fields(q) {
		t := nonTokenRe.ReplaceAllString(f, "")
		if len(t) >= minTokenLen {
			out = append(out, t)
		}
	}
	return out
}

// escape covers the four characters significant inside element content and attributes.
func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return strings.ReplaceAll(s, `"`, "&quot;")
}

// lowerRunes lowercases rune by rune so rune offsets match the original text.
func lowerRunes(s string) string {
	return strings.Map(unicode.ToLower, s)
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
