// Package sanitize neutralizes untrusted form input before it reaches any
// HTML surface (the rendered email body in particular).
package sanitize

import (
	"regexp"
	"strings"
)

// entityRe matches an ampersand that already begins a character reference.
// Those are left untouched so sanitizing twice never drifts: the output of
// one pass contains no character the next pass would escape again.
var entityRe = regexp.MustCompile(`^(?:amp|lt|gt|quot|#39|#x27|#[0-9]{1,7}|#x[0-9a-fA-F]{1,6});`)

var replacements = map[byte]string{
	'<':  "&lt;",
	'>':  "&gt;",
	'"':  "&quot;",
	'\'': "&#39;",
}

// Sanitize trims surrounding whitespace and escapes characters meaningful to
// HTML rendering. Pure and total: unescapable input is simply escaped.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '&':
			if entityRe.MatchString(s[i+1:]) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
		case '<', '>', '"', '\'':
			b.WriteString(replacements[c])
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
