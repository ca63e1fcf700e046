// Package markup implements the inline bold/italic substitution applied to free-text
// slide fields before they are stored.
package markup

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
)

// Transform escapes src and then applies the two substitution passes:
// **X** becomes <strong>X</strong>, then *X* becomes <em>X</em>.
//
// The result is final HTML. Feeding it back into Transform escapes the tags it
// produced, so callers must run it once per edit.
func Transform(src string) string {
	if src == "" {
		return ""
	}
	out := html.EscapeString(src)
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	return out
}

var sourceReplacer = strings.NewReplacer(
	"<strong>", "**",
	"</strong>", "**",
	"<em>", "*",
	"</em>", "*",
)

// Source maps stored HTML back to editable text so an editor control can be
// pre-filled. It is a display aid only; nothing stores its output.
func Source(rendered string) string {
	if rendered == "" {
		return ""
	}
	return html.UnescapeString(sourceReplacer.Replace(rendered))
}
