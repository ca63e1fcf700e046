package tui

import (
	"strings"
	"testing"

	"slidedeck-cli/internal/model"
	"slidedeck-cli/internal/render"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestPreviewTextFollowsFragment(t *testing.T) {
	s := model.Slide{
		BannerTitle: "<b>Act I</b>",
		MainHeading: "see [docs](http://evil) and *not italic*",
		Description: "<strong>bold</strong> and <em>slanted</em>",
		Boxes: []model.Box{
			{Type: model.BoxTypeDescription, Content: "a &amp; b"},
			{Type: model.BoxTypeCharacter, Heading: "Hero", ImageURL: "http://x/a b.png"},
			{Type: "unknown", Heading: "skipped"},
		},
	}
	out := xansi.Strip(previewText(render.Fragment(s), 80))

	want := []string{
		"<b>Act I</b>",
		"see [docs](http://evil) and *not italic*",
		"bold and slanted",
		"Untitled",
		"a & b",
		"image: http://x/a%20b.png",
		"Hero",
	}
	pos := 0
	for _, w := range want {
		i := strings.Index(out[pos:], w)
		if i < 0 {
			t.Fatalf("missing %q after offset %d in:\n%s", w, pos, out)
		}
		pos += i + len(w)
	}
	if strings.Contains(out, "skipped") || strings.Contains(out, "**") {
		t.Fatalf("unexpected text in preview:\n%s", out)
	}
}

func TestPreviewTextWraps(t *testing.T) {
	s := model.Slide{MainHeading: strings.Repeat("word ", 20)}
	for i, line := range strings.Split(previewText(render.Fragment(s), 20), "\n") {
		if w := xansi.StringWidth(line); w > 20 {
			t.Fatalf("line %d too wide (%d)", i, w)
		}
	}
}

func TestPreviewTextEmptyFragment(t *testing.T) {
	if got := strings.TrimSpace(previewText(render.Fragment(model.Slide{}), 40)); got != "" {
		t.Fatalf("expected empty preview; got %q", got)
	}
}
