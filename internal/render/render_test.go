package render

import (
	"strings"
	"testing"

	"slidedeck-cli/internal/markup"
	"slidedeck-cli/internal/model"
)

func sampleSlide() model.Slide {
	return model.Slide{
		ID:          "slide_x",
		Number:      1,
		BannerTitle: "Chapter 1",
		MainHeading: "Heroes",
		Description: markup.Transform("**Bold** and *italic*"),
		Boxes: []model.Box{
			{Type: model.BoxTypeDescription, Heading: "Setting", Content: markup.Transform("A *quiet* town")},
			{Type: model.BoxTypeCharacter, Heading: "Ada", Content: "Engineer", ImageURL: "https://example.com/ada.png"},
		},
	}
}

func TestFragment_Deterministic(t *testing.T) {
	s := sampleSlide()
	a := Fragment(s)
	b := Fragment(s)
	if a != b {
		t.Fatalf("expected identical output:\n%s\n---\n%s", a, b)
	}
}

func TestFragment_RegionsInOrder(t *testing.T) {
	out := Fragment(sampleSlide())
	order := []string{
		`<div class="banner">Chapter 1</div>`,
		`<div class="main-heading">Heroes</div>`,
		`<div class="description"><strong>Bold</strong> and <em>italic</em></div>`,
		`<div class="box-heading">Setting</div>`,
		`<div class="box-content">A <em>quiet</em> town</div>`,
		`url('https://example.com/ada.png')`,
		`<div class="card-title">Ada</div>`,
	}
	pos := -1
	for _, want := range order {
		i := strings.Index(out, want)
		if i < 0 {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
		if i <= pos {
			t.Fatalf("%q out of order in:\n%s", want, out)
		}
		pos = i
	}
}

func TestFragment_MarkupAppliedOnceAcrossRenders(t *testing.T) {
	s := sampleSlide()
	for i := 0; i < 3; i++ {
		out := Fragment(s)
		if strings.Count(out, "<strong>Bold</strong>") != 1 {
			t.Fatalf("render %d: expected one strong wrap:\n%s", i, out)
		}
		if strings.Contains(out, "&lt;strong&gt;") {
			t.Fatalf("render %d: markup was re-escaped:\n%s", i, out)
		}
	}
}

func TestFragment_EmptySlide(t *testing.T) {
	out := Fragment(model.Slide{})
	want := "<div class=\"banner\"></div>\n<div class=\"main-heading\"></div>\n<div class=\"description\"></div>\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestFragment_PlaceholderImage(t *testing.T) {
	out := Fragment(model.Slide{Boxes: []model.Box{{Type: model.BoxTypeCharacter, Heading: "x"}}})
	if !strings.Contains(out, "url('"+PlaceholderImageURL+"')") {
		t.Fatalf("expected placeholder image:\n%s", out)
	}
}

func TestFragment_SkipsUnknownBoxes(t *testing.T) {
	out := Fragment(model.Slide{Boxes: []model.Box{
		{Type: "video", Heading: "nope"},
		{Type: model.BoxTypeDescription, Heading: "yes"},
	}})
	if strings.Contains(out, "nope") {
		t.Fatalf("unknown box rendered:\n%s", out)
	}
	if !strings.Contains(out, "yes") {
		t.Fatalf("known box missing:\n%s", out)
	}
}

func TestFragment_EscapesFreeText(t *testing.T) {
	out := Fragment(model.Slide{
		BannerTitle: "<script>alert(1)</script>",
		MainHeading: `"quoted" & <b>`,
		Description: `<script>alert(2)</script><strong>ok</strong>`,
		Boxes: []model.Box{
			{Type: model.BoxTypeCharacter, ImageURL: `x'); background: url('evil`},
		},
	})
	if strings.Contains(out, "<script>") || strings.Contains(out, "alert(2)") {
		t.Fatalf("script leaked:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("expected escaped banner:\n%s", out)
	}
	if !strings.Contains(out, "<strong>ok</strong>") {
		t.Fatalf("expected inline markup kept:\n%s", out)
	}
	if strings.Contains(out, "x');") {
		t.Fatalf("image url broke out of css string:\n%s", out)
	}
}

func TestStylesheet_Embedded(t *testing.T) {
	if !strings.Contains(Stylesheet(), ".character-box") {
		t.Fatalf("expected embedded stylesheet")
	}
}
