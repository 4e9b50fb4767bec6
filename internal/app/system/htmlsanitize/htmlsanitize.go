// Package htmlsanitize cleans model-generated text before it is stored or
// served. Personas, hobby tags and match reasons come back from the model as
// free text and may carry markup; everything here reduces them to plain text.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict drops every element and attribute, keeping text content.
var strict = bluemonday.StrictPolicy()

// Text strips all markup from s, decodes entities and collapses whitespace.
func Text(s string) string {
	if s == "" {
		return ""
	}
	out := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(out), " ")
}

// TextLimit is Text truncated to at most max runes.
func TextLimit(s string, max int) string {
	out := Text(s)
	if max <= 0 {
		return out
	}
	r := []rune(out)
	if len(r) <= max {
		return out
	}
	return strings.TrimSpace(string(r[:max]))
}

// Tags cleans a list of short labels such as hobbies: each is stripped,
// lower-cased and trimmed; empties and duplicates are dropped; order is kept.
func Tags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(Text(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
