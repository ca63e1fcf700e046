package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

// The preview pane draws the same fragment the exporter writes. Text inside a
// region is shown as stored; only <strong> and <em> change how it looks.

type previewSpan struct {
	text         string
	bold, italic bool
}

type previewRegion struct {
	class string
	spans []previewSpan
}

func (r previewRegion) plain() string {
	var b strings.Builder
	for _, sp := range r.spans {
		b.WriteString(sp.text)
	}
	return b.String()
}

var textRegions = map[string]bool{
	"banner":           true,
	"main-heading":     true,
	"description":      true,
	"box-heading":      true,
	"box-content":      true,
	"card-title":       true,
	"card-description": true,
}

// parseFragment splits a rendered fragment into its regions in document order.
// Box containers become empty regions so the caller can separate boxes.
func parseFragment(fragment string) []previewRegion {
	var (
		regions      []previewRegion
		cur          = -1
		bold, italic int
	)
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return regions

		case html.StartTagToken:
			t := z.Token()
			switch t.Data {
			case "strong":
				bold++
			case "em":
				italic++
			case "div":
				class, _, _ := strings.Cut(attr(t, "class"), " ")
				switch {
				case textRegions[class]:
					regions = append(regions, previewRegion{class: class})
					cur = len(regions) - 1
				case class == "description-box" || class == "character-box":
					regions = append(regions, previewRegion{class: class})
				case class == "card-image":
					regions = append(regions, previewRegion{
						class: class,
						spans: []previewSpan{{text: backgroundURL(attr(t, "style"))}},
					})
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "strong":
				bold = max(bold-1, 0)
			case "em":
				italic = max(italic-1, 0)
			case "div":
				cur = -1
			}

		case html.TextToken:
			if cur < 0 {
				continue
			}
			regions[cur].spans = append(regions[cur].spans, previewSpan{
				text:   string(z.Text()),
				bold:   bold > 0,
				italic: italic > 0,
			})
		}
	}
}

func attr(t html.Token, key string) string {
	for _, a := range t.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func backgroundURL(style string) string {
	_, rest, ok := strings.Cut(style, "url('")
	if !ok {
		return ""
	}
	u, _, _ := strings.Cut(rest, "')")
	return u
}

// previewText renders a fragment as wrapped terminal text.
func previewText(fragment string, width int) string {
	width = max(width, 10)
	var lines []string
	for _, r := range parseFragment(fragment) {
		base := lipgloss.NewStyle()
		switch r.class {
		case "banner":
			base = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
		case "main-heading":
			base = lipgloss.NewStyle().Foreground(colorHeading).Bold(true)
		case "box-heading", "card-title":
			base = lipgloss.NewStyle().Foreground(colorSurfaceFg).Bold(true)
			if strings.TrimSpace(r.plain()) == "" {
				r.spans = []previewSpan{{text: "Untitled"}}
			}
		case "card-image":
			base = styleMuted()
			r.spans = []previewSpan{{text: "image: " + r.plain()}}
		case "description-box", "character-box":
			lines = append(lines, "")
			continue
		}
		if strings.TrimSpace(r.plain()) == "" {
			continue
		}

		var b strings.Builder
		for _, sp := range r.spans {
			st := base
			if sp.bold {
				st = st.Bold(true)
			}
			if sp.italic {
				st = st.Italic(true)
			}
			b.WriteString(st.Render(sp.text))
		}
		lines = append(lines, lipgloss.NewStyle().Width(width).Render(strings.TrimSpace(b.String())))
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
