package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectVersion is written into every saved project payload.
const ProjectVersion = "1.0.0"

type BoxType string

const (
	BoxTypeDescription BoxType = "description"
	BoxTypeCharacter   BoxType = "character"
)

// Known reports whether t is a box variant the renderer understands.
func (t BoxType) Known() bool {
	return t == BoxTypeDescription || t == BoxTypeCharacter
}

type Box struct {
	Type     BoxType `json:"type"`
	Heading  string  `json:"heading"`
	Content  string  `json:"content"`
	ImageURL string  `json:"imageURL,omitempty"`
}

// Slide is one ordered unit of a deck.
//
// Description and box Content hold rendered markup (see internal/markup); the
// source text typed by the user is not retained.
type Slide struct {
	ID          string `json:"id"`
	Number      int    `json:"number"`
	BannerTitle string `json:"bannerTitle"`
	MainHeading string `json:"mainHeading"`
	Description string `json:"description"`
	Boxes       []Box  `json:"boxes"`
}

func NewSlide(number int) Slide {
	return Slide{
		ID:     NewSlideID(),
		Number: number,
		Boxes:  []Box{},
	}
}

func NewSlideID() string {
	return "slide_" + uuid.NewString()
}

// Clone returns a deep copy. Boxes is always non-nil in the copy.
func (s Slide) Clone() Slide {
	out := s
	out.Boxes = make([]Box, len(s.Boxes))
	copy(out.Boxes, s.Boxes)
	return out
}

// SlidePatch is a partial slide update. Nil fields are left untouched.
type SlidePatch struct {
	BannerTitle *string
	MainHeading *string
	Description *string
	Boxes       *[]Box
}

// FullPatch returns a patch that overwrites every mergeable field of a slide.
func FullPatch(s Slide) SlidePatch {
	banner := s.BannerTitle
	heading := s.MainHeading
	desc := s.Description
	boxes := make([]Box, len(s.Boxes))
	copy(boxes, s.Boxes)
	return SlidePatch{
		BannerTitle: &banner,
		MainHeading: &heading,
		Description: &desc,
		Boxes:       &boxes,
	}
}

// Apply merges p into s (later fields overwrite).
func (p SlidePatch) Apply(s *Slide) {
	if s == nil {
		return
	}
	if p.BannerTitle != nil {
		s.BannerTitle = *p.BannerTitle
	}
	if p.MainHeading != nil {
		s.MainHeading = *p.MainHeading
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Boxes != nil {
		boxes := make([]Box, len(*p.Boxes))
		copy(boxes, *p.Boxes)
		s.Boxes = boxes
	}
}

// Project is the persisted/exchanged deck payload.
type Project struct {
	Version   string  `json:"version"`
	Timestamp string  `json:"timestamp"`
	Slides    []Slide `json:"slides"`
}

func NewProject(slides []Slide, now time.Time) Project {
	out := make([]Slide, 0, len(slides))
	for _, s := range slides {
		out = append(out, s.Clone())
	}
	return Project{
		Version:   ProjectVersion,
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Slides:    out,
	}
}
