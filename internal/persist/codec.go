// Package persist saves, loads and autosaves the project payload.
package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"slidedeck-cli/internal/model"
)

// ValidationError reports a payload that cannot be loaded. Nothing was changed.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "invalid project: " + e.Msg + ": " + e.Err.Error()
	}
	return "invalid project: " + e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Encode serializes a project. Pretty output is used for downloads, compact output
// for the storage slot.
func Encode(p model.Project, pretty bool) ([]byte, error) {
	if p.Slides == nil {
		p.Slides = []model.Slide{}
	}
	for i := range p.Slides {
		if p.Slides[i].Boxes == nil {
			p.Slides[i].Boxes = []model.Box{}
		}
	}
	if pretty {
		b, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}
	return json.Marshal(p)
}

// Decode parses and validates a payload. slides must be present and be a list;
// missing optional slide fields take their defaults.
func Decode(b []byte) (model.Project, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return model.Project{}, &ValidationError{Msg: "not a JSON object", Err: err}
	}
	if top == nil {
		return model.Project{}, &ValidationError{Msg: "not a JSON object"}
	}
	raw, ok := top["slides"]
	if !ok {
		return model.Project{}, &ValidationError{Msg: "missing slides"}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return model.Project{}, &ValidationError{Msg: "slides is not a list"}
	}

	var slides []model.Slide
	if err := json.Unmarshal(raw, &slides); err != nil {
		return model.Project{}, &ValidationError{Msg: "malformed slides", Err: err}
	}

	p := model.Project{Slides: make([]model.Slide, 0, len(slides))}
	if v, ok := top["version"]; ok {
		_ = json.Unmarshal(v, &p.Version)
	}
	if v, ok := top["timestamp"]; ok {
		_ = json.Unmarshal(v, &p.Timestamp)
	}
	for i, s := range slides {
		if s.ID == "" {
			s.ID = model.NewSlideID()
		}
		if s.Number <= 0 {
			s.Number = i + 1
		}
		if s.Boxes == nil {
			s.Boxes = []model.Box{}
		}
		p.Slides = append(p.Slides, s)
	}
	return p, nil
}

// DownloadName is the file name offered when saving at t.
func DownloadName(t time.Time) string {
	return fmt.Sprintf("slide-project-%s.json", t.Format("2006-01-02-15-04-05"))
}
