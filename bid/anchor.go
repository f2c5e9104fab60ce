package bid

import "strings"

// ToAnchor normalizes an arbitrary string (heading title, explicit anchor
// attribute) into a URL-fragment-safe anchor:
//
//  1. Lowercase the string.
//  2. Replace any run of characters outside [a-z0-9] with a single '-'.
//  3. Strip leading and trailing '-'.
//  4. If the result is empty, use "section".
func ToAnchor(s string) string {
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lower))
	inRun := false
	wroteAny := false
	for _, r := range lower {
		if isAnchorRune(r) {
			b.WriteRune(r)
			inRun = false
			wroteAny = true
			continue
		}
		if wroteAny && !inRun {
			b.WriteByte('-')
			inRun = true
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "section"
	}
	return out
}

func isAnchorRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
