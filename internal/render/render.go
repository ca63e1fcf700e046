// Package render maps a slide to an HTML content fragment. It is used for the live
// preview and for every export mode, so the output must depend on the slide alone.
package render

import (
	_ "embed"
	"html"
	"strings"

	"slidedeck-cli/internal/model"

	"github.com/microcosm-cc/bluemonday"
)

// PlaceholderImageURL stands in for an empty character image.
const PlaceholderImageURL = "https://via.placeholder.com/150"

//go:embed styles.css
var stylesheet string

// Stylesheet returns the stylesheet exported documents use, inlined or shared.
func Stylesheet() string { return stylesheet }

// Stored content is already escaped and carries only the two inline tags the
// markup transform emits; anything else comes from a hand-edited payload.
var contentPolicy = bluemonday.NewPolicy().AllowElements("strong", "em")

// Fragment renders banner, heading, description and one region per box in array
// order. Unknown box types are skipped.
func Fragment(s model.Slide) string {
	var b strings.Builder

	b.WriteString(`<div class="banner">` + html.EscapeString(s.BannerTitle) + "</div>\n")
	b.WriteString(`<div class="main-heading">` + html.EscapeString(s.MainHeading) + "</div>\n")
	b.WriteString(`<div class="description">` + content(s.Description) + "</div>\n")

	for _, box := range s.Boxes {
		switch box.Type {
		case model.BoxTypeDescription:
			b.WriteString(`<div class="description-box">` + "\n")
			b.WriteString(`  <div class="box-heading">` + html.EscapeString(box.Heading) + "</div>\n")
			b.WriteString(`  <div class="box-content">` + content(box.Content) + "</div>\n")
			b.WriteString("</div>\n")
		case model.BoxTypeCharacter:
			img := box.ImageURL
			if strings.TrimSpace(img) == "" {
				img = PlaceholderImageURL
			}
			b.WriteString(`<div class="character-box flex-container">` + "\n")
			b.WriteString(`  <div class="card-image" style="background-image: url('` + cssURL(img) + `');"></div>` + "\n")
			b.WriteString(`  <div class="content">` + "\n")
			b.WriteString(`    <div class="card-title">` + html.EscapeString(box.Heading) + "</div>\n")
			b.WriteString(`    <div class="card-description">` + content(box.Content) + "</div>\n")
			b.WriteString("  </div>\n")
			b.WriteString("</div>\n")
		}
	}
	return b.String()
}

func content(s string) string {
	if s == "" {
		return ""
	}
	return contentPolicy.Sanitize(s)
}

// cssURL makes u safe inside url('...') within a double-quoted attribute.
func cssURL(u string) string {
	var b strings.Builder
	for _, r := range u {
		switch r {
		case '\'':
			b.WriteString("%27")
		case '"':
			b.WriteString("%22")
		case '(':
			b.WriteString("%28")
		case ')':
			b.WriteString("%29")
		case '\\':
			b.WriteString("%5C")
		case ' ', '\t', '\n', '\r', '\f':
			b.WriteString("%20")
		default:
			b.WriteRune(r)
		}
	}
	return html.EscapeString(b.String())
}
