package validation

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML drops markup from s, keeping only text content, and trims the result.
// Contents of script and style elements are discarded. Entity-encoded markup
// such as "&lt;b&gt;" is decoded and stripped as well, so the result never
// contains a tag.
func StripHTML(s string) string {
	// every pass that changes the text makes it shorter, so this terminates
	for {
		out := stripOnce(s)
		if out == s {
			return out
		}
		s = out
	}
}

func stripOnce(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); rawTextElement(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); rawTextElement(name) && skip > 0 {
				skip--
			}
		}
	}
}

func rawTextElement(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
