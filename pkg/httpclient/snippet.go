package httpclient

import (
	"strings"
	"unicode/utf8"
)

// Snippet trims body and cuts it to at most max bytes without splitting a
// UTF-8 sequence. A cut body is suffixed with "...".
func Snippet(body string, max int) string {
	body = strings.TrimSpace(body)
	if max <= 0 || len(body) <= max {
		return body
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}
