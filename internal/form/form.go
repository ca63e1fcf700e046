// Package form binds editable controls to the current slide.
//
// Every change runs one synchronization cycle: read all controls, transform the
// free-text content fields, rebuild the full slide, hand it to the deck and refresh
// the preview. Controls that were not edited since the slide was loaded keep the
// stored (already rendered) value, so the markup transform runs once per edit.
package form

import (
	"errors"
	"fmt"
	"strings"

	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/markup"
	"slidedeck-cli/internal/model"
	"slidedeck-cli/internal/render"
)

type Field string

const (
	FieldBannerTitle Field = "bannerTitle"
	FieldMainHeading Field = "mainHeading"
	FieldDescription Field = "description"

	FieldBoxHeading  Field = "heading"
	FieldBoxContent  Field = "content"
	FieldBoxImageURL Field = "imageURL"
)

// Store is the part of the slide store the form writes to.
type Store interface {
	UpdateCurrentSlide(patch model.SlidePatch) bool
	CurrentIndex() int
}

// Control is one editable value. Value is what the user sees; stored is what the
// slide held when the control was loaded.
type Control struct {
	Value  string
	stored string
	dirty  bool
	markup bool
}

func plainControl(stored string) Control {
	return Control{Value: stored, stored: stored}
}

func markupControl(stored string) Control {
	return Control{Value: markup.Source(stored), stored: stored, markup: true}
}

func (c *Control) set(v string) {
	c.Value = v
	c.dirty = true
}

func (c Control) read() string {
	if !c.dirty {
		return c.stored
	}
	if c.markup {
		return markup.Transform(c.Value)
	}
	return c.Value
}

// BoxGroup is the control group for one box. ID is a session identifier used to
// address the group; it is not part of the slide.
type BoxGroup struct {
	ID       int
	Type     model.BoxType
	Heading  Control
	Content  Control
	ImageURL Control
}

type Form struct {
	store Store

	loaded      bool
	banner      Control
	heading     Control
	description Control
	boxes       []*BoxGroup
	lastBoxID   int

	preview string
	onSync  func(model.Slide, string)
}

func New(store Store) *Form {
	return &Form{store: store}
}

// OnSync registers a callback run at the end of every cycle with the rebuilt slide
// and its rendered fragment.
func (f *Form) OnSync(fn func(model.Slide, string)) {
	f.onSync = fn
}

// Attach keeps the form bound to the deck selection.
func (f *Form) Attach(d *deck.Deck) func() {
	return d.Subscribe(func(ev deck.Event) {
		switch ev.Kind {
		case deck.EventSelectionChanged:
			if ev.Slide == nil || ev.Current < 0 {
				f.Reset()
				return
			}
			f.Load(*ev.Slide)
		case deck.EventSlideDeleted:
			if ev.Current < 0 {
				f.Reset()
			}
		}
	})
}

// Load builds the control groups for s. Box session ids restart at 1.
func (f *Form) Load(s model.Slide) {
	f.loaded = true
	f.banner = plainControl(s.BannerTitle)
	f.heading = plainControl(s.MainHeading)
	f.description = markupControl(s.Description)
	f.boxes = f.boxes[:0]
	f.lastBoxID = 0
	for _, b := range s.Boxes {
		f.lastBoxID++
		f.boxes = append(f.boxes, &BoxGroup{
			ID:       f.lastBoxID,
			Type:     b.Type,
			Heading:  plainControl(b.Heading),
			Content:  markupControl(b.Content),
			ImageURL: plainControl(b.ImageURL),
		})
	}
	f.preview = render.Fragment(s)
}

// Reset drops every control; used when no slide is selected.
func (f *Form) Reset() {
	f.loaded = false
	f.banner = Control{}
	f.heading = Control{}
	f.description = Control{}
	f.boxes = nil
	f.lastBoxID = 0
	f.preview = ""
}

func (f *Form) Loaded() bool { return f.loaded }

func (f *Form) Value(field Field) string {
	switch field {
	case FieldBannerTitle:
		return f.banner.Value
	case FieldMainHeading:
		return f.heading.Value
	case FieldDescription:
		return f.description.Value
	}
	return ""
}

// Boxes returns copies of the box groups in control order.
func (f *Form) Boxes() []BoxGroup {
	out := make([]BoxGroup, 0, len(f.boxes))
	for _, b := range f.boxes {
		out = append(out, *b)
	}
	return out
}

func (f *Form) Preview() string { return f.preview }

var ErrNotLoaded = errors.New("no slide loaded")

// SetField changes a slide-level control and runs a cycle.
func (f *Form) SetField(field Field, v string) error {
	if !f.loaded {
		return ErrNotLoaded
	}
	switch field {
	case FieldBannerTitle:
		f.banner.set(v)
	case FieldMainHeading:
		f.heading.set(v)
	case FieldDescription:
		f.description.set(v)
	default:
		return fmt.Errorf("unknown slide field: %s", field)
	}
	f.Sync()
	return nil
}

// SetBoxField changes one control of the box group id and runs a cycle.
func (f *Form) SetBoxField(id int, field Field, v string) error {
	if !f.loaded {
		return ErrNotLoaded
	}
	g := f.box(id)
	if g == nil {
		return fmt.Errorf("box not found: %d", id)
	}
	switch field {
	case FieldBoxHeading:
		g.Heading.set(v)
	case FieldBoxContent:
		g.Content.set(v)
	case FieldBoxImageURL:
		if g.Type != model.BoxTypeCharacter {
			return fmt.Errorf("box %d (%s) has no image", id, g.Type)
		}
		g.ImageURL.set(v)
	default:
		return fmt.Errorf("unknown box field: %s", field)
	}
	f.Sync()
	return nil
}

func (f *Form) box(id int) *BoxGroup {
	for _, b := range f.boxes {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// AddBox appends an empty box group with a fresh session id and runs a cycle.
func (f *Form) AddBox(t model.BoxType) (int, error) {
	if !f.loaded {
		return 0, ErrNotLoaded
	}
	if !t.Known() {
		return 0, fmt.Errorf("unknown box type: %s", t)
	}
	f.lastBoxID++
	g := &BoxGroup{
		ID:      f.lastBoxID,
		Type:    t,
		Content: Control{markup: true},
	}
	// New controls count as edited: their empty values are what the user sees.
	g.Heading.dirty = true
	g.Content.dirty = true
	g.ImageURL.dirty = true
	f.boxes = append(f.boxes, g)
	f.Sync()
	return g.ID, nil
}

// DeleteBox removes the box group id. Other ids are not renumbered.
func (f *Form) DeleteBox(id int) bool {
	if !f.loaded {
		return false
	}
	for i, b := range f.boxes {
		if b.ID == id {
			f.boxes = append(f.boxes[:i], f.boxes[i+1:]...)
			f.Sync()
			return true
		}
	}
	return false
}

// Sync runs one cycle and returns the slide it built.
func (f *Form) Sync() model.Slide {
	s := f.build()
	if f.store != nil && f.store.CurrentIndex() >= 0 {
		f.store.UpdateCurrentSlide(model.FullPatch(s))
	}
	f.preview = render.Fragment(s)
	if f.onSync != nil {
		f.onSync(s, f.preview)
	}
	return s
}

func (f *Form) build() model.Slide {
	s := model.Slide{
		BannerTitle: f.banner.read(),
		MainHeading: f.heading.read(),
		Description: f.description.read(),
		Boxes:       make([]model.Box, 0, len(f.boxes)),
	}
	for _, g := range f.boxes {
		b := model.Box{
			Type:    g.Type,
			Heading: g.Heading.read(),
			Content: g.Content.read(),
		}
		if g.Type == model.BoxTypeCharacter {
			b.ImageURL = g.ImageURL.read()
			if strings.TrimSpace(b.ImageURL) == "" {
				b.ImageURL = render.PlaceholderImageURL
			}
		}
		s.Boxes = append(s.Boxes, b)
	}
	return s
}
