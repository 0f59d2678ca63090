package concept

import "strings"

// Normalize folds text into the comparable form shared by concept terms, queries and records:
// lowercase, '/', '_' and '-' become spaces, everything except [a-z0-9 .] becomes a space,
// whitespace runs collapse to one space, and the result is trimmed.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		keep := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.'
		if !keep {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
