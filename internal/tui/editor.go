package tui

import (
	"slidedeck-cli/internal/form"
	"slidedeck-cli/internal/model"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// editor is one control in the form pane. boxID is 0 for slide-level fields.
type editor struct {
	label     string
	field     form.Field
	boxID     int
	boxType   model.BoxType
	multiline bool

	line textinput.Model
	area textarea.Model
}

func newLineEditor(label string, field form.Field, boxID int, value string) editor {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.SetValue(value)
	return editor{label: label, field: field, boxID: boxID, line: ti}
}

func newAreaEditor(label string, field form.Field, boxID int, value string) editor {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.SetValue(value)
	return editor{label: label, field: field, boxID: boxID, multiline: true, area: ta}
}

func (e *editor) value() string {
	if e.multiline {
		return e.area.Value()
	}
	return e.line.Value()
}

func (e *editor) setWidth(w int) {
	if w < 4 {
		w = 4
	}
	if e.multiline {
		e.area.SetWidth(w)
		return
	}
	e.line.Width = w
}

func (e *editor) focus() tea.Cmd {
	if e.multiline {
		return e.area.Focus()
	}
	return e.line.Focus()
}

func (e *editor) blur() {
	if e.multiline {
		e.area.Blur()
		return
	}
	e.line.Blur()
}

func (e *editor) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if e.multiline {
		e.area, cmd = e.area.Update(msg)
	} else {
		e.line, cmd = e.line.Update(msg)
	}
	return cmd
}

func (e *editor) view() string {
	if e.multiline {
		return e.area.View()
	}
	return e.line.View()
}

// buildEditors lays out the controls for the loaded form: slide fields first, then
// one group per box in box order.
func buildEditors(f *form.Form) []editor {
	if !f.Loaded() {
		return nil
	}
	eds := []editor{
		newLineEditor("Banner", form.FieldBannerTitle, 0, f.Value(form.FieldBannerTitle)),
		newLineEditor("Heading", form.FieldMainHeading, 0, f.Value(form.FieldMainHeading)),
		newAreaEditor("Description", form.FieldDescription, 0, f.Value(form.FieldDescription)),
	}
	for _, b := range f.Boxes() {
		group := []editor{
			newLineEditor("Heading", form.FieldBoxHeading, b.ID, b.Heading.Value),
			newAreaEditor("Content", form.FieldBoxContent, b.ID, b.Content.Value),
		}
		if b.Type == model.BoxTypeCharacter {
			group = append(group, newLineEditor("Image URL", form.FieldBoxImageURL, b.ID, b.ImageURL.Value))
		}
		for i := range group {
			group[i].boxType = b.Type
		}
		eds = append(eds, group...)
	}
	return eds
}
