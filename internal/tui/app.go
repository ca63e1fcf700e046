package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"slidedeck-cli/internal/artifact"
	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/docs"
	"slidedeck-cli/internal/export"
	"slidedeck-cli/internal/form"
	"slidedeck-cli/internal/model"
	"slidedeck-cli/internal/persist"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// Deps are the session services the editor drives. Autosaver may be nil.
type Deps struct {
	Deck      *deck.Deck
	Form      *form.Form
	Persister *persist.Persister
	Exporter  *export.Exporter
	Autosaver *persist.Autosaver
	Log       logrus.FieldLogger
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
	modeLoadPrompt
	modeHelp
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusWarn
	statusError
)

type archiveDoneMsg struct {
	res export.ArchiveResult
}

const (
	listPaneWidth = 28
	defaultWidth  = 100
	defaultHeight = 30
)

type appModel struct {
	ctx  context.Context
	deps Deps

	width  int
	height int

	mode    mode
	editors []editor
	focus   int

	confirmFocus  confirmModalFocus
	pendingDelete int

	loadInput textinput.Model

	status     string
	statusKind statusKind
	archiving  bool
}

func newAppModel(ctx context.Context, deps Deps) appModel {
	if deps.Log == nil {
		deps.Log = discardLogger()
	}
	li := textinput.New()
	li.Prompt = "Load project: "
	li.Placeholder = "path/to/slide-project.json"

	m := appModel{
		ctx:       ctx,
		deps:      deps,
		loadInput: li,
	}
	m.rebuildEditors()
	return m
}

func (m appModel) Init() tea.Cmd { return nil }

func (m appModel) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// paneWidths splits the screen into list, form and preview panes (outer widths).
func (m appModel) paneWidths() (int, int, int) {
	w, _ := m.size()
	listW := min(listPaneWidth, w/4)
	rest := w - listW
	formW := rest / 2
	return listW, formW, rest - formW
}

// rebuildEditors recreates the form controls from the form's current state. Only
// structural changes (selection, box added or removed) need this.
func (m *appModel) rebuildEditors() {
	for i := range m.editors {
		m.editors[i].blur()
	}
	m.editors = buildEditors(m.deps.Form)
	_, formW, _ := m.paneWidths()
	for i := range m.editors {
		m.editors[i].setWidth(formW - 4)
	}
	if len(m.editors) == 0 {
		m.focus = 0
		if m.mode == modeForm {
			m.mode = modeList
		}
		return
	}
	if m.focus >= len(m.editors) {
		m.focus = len(m.editors) - 1
	}
	if m.mode == modeForm {
		m.editors[m.focus].focus()
	}
}

func (m *appModel) info(msg string) {
	m.status, m.statusKind = msg, statusInfo
}

// report surfaces err on the status line. User-facing conditions are warnings; the
// rest are logged too.
func (m *appModel) report(err error) {
	if err == nil {
		return
	}
	var ua deck.UserActionError
	var ve *persist.ValidationError
	var exists *artifact.ExistsError
	switch {
	case errors.As(err, &ua), errors.As(err, &ve):
		m.status, m.statusKind = err.Error(), statusWarn
	case errors.As(err, &exists):
		m.status = fmt.Sprintf("%s already exists; nothing written (start with --overwrite or set export.overwrite = true)", exists.Path)
		m.statusKind = statusWarn
	default:
		m.deps.Log.WithError(err).Error("editor action failed")
		m.status, m.statusKind = err.Error(), statusError
	}
}

func (m appModel) View() string {
	w, h := m.size()
	bodyH := max(h-3, 5)

	header := m.viewHeader(w)
	var body string
	if m.mode == modeConfirmDelete {
		modal := renderConfirmModal(w, "Delete slide",
			fmt.Sprintf("Delete slide %d? This cannot be undone.", m.pendingDelete+1),
			"Delete", "Cancel", m.confirmFocus)
		body = lipgloss.Place(w, bodyH, lipgloss.Center, lipgloss.Center, modal)
	} else if m.mode == modeHelp {
		keys, _ := docs.Get("keys")
		body = fitLines(renderMarkdown(keys, w-2), w, bodyH)
	} else {
		listW, formW, previewW := m.paneWidths()
		innerH := bodyH - 2
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			stylePane(m.mode == modeList).Render(m.viewList(listW-4, innerH)),
			stylePane(m.mode == modeForm).Render(m.viewForm(formW-4, innerH)),
			stylePane(false).Render(m.viewPreview(previewW-4, innerH)),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.viewFooter(w))
}

func (m appModel) viewHeader(w int) string {
	n := m.deps.Deck.Count()
	title := styleTitle().Render("slidedeck")
	meta := fmt.Sprintf("%d slide", n)
	if n != 1 {
		meta += "s"
	}
	if cur := m.deps.Deck.CurrentIndex(); cur >= 0 {
		meta += fmt.Sprintf("  ·  slide %d selected", cur+1)
	}
	if m.archiving {
		meta += "  ·  building archive…"
	}
	if a := m.deps.Autosaver; a != nil && a.Pending() {
		meta += "  ·  unsaved"
	}
	return padOrCutANSI(title+"  "+styleMuted().Render(meta), w)
}

func (m appModel) viewList(w, h int) string {
	lines := []string{styleTitle().Render("Slides")}
	slides := m.deps.Deck.Snapshot()
	if len(slides) == 0 {
		lines = append(lines, styleMuted().Render(truncateToWidth("No slides. Press a to add one.", w)))
	}
	cur := m.deps.Deck.CurrentIndex()
	for i, s := range slides {
		heading := strings.TrimSpace(s.MainHeading)
		if heading == "" {
			heading = "Untitled Slide"
		}
		row := truncateToWidth(fmt.Sprintf("%2d  %s", i+1, heading), w)
		if i == cur {
			row = styleSelected().Render(padOrCutANSI(row, w))
		}
		lines = append(lines, row)
	}
	return fitLines(strings.Join(lines, "\n"), w, h)
}

func (m appModel) viewForm(w, h int) string {
	if len(m.editors) == 0 {
		msg := styleMuted().Render(truncateToWidth("No slide selected.", w))
		return fitLines(styleTitle().Render("Slide")+"\n"+msg, w, h)
	}
	lines := []string{styleTitle().Render(fmt.Sprintf("Slide %d", m.deps.Deck.CurrentIndex()+1))}
	focusLine := 0
	lastBox := 0
	for i := range m.editors {
		ed := &m.editors[i]
		if ed.boxID != lastBox {
			lastBox = ed.boxID
			lines = append(lines, "", styleMuted().Render(truncateToWidth(fmt.Sprintf("Box %d · %s", ed.boxID, boxTypeLabel(ed.boxType)), w)))
		}
		label := styleLabel().Render(ed.label)
		if m.mode == modeForm && i == m.focus {
			focusLine = len(lines)
			label = styleSelected().Render(ed.label)
		}
		lines = append(lines, label)
		lines = append(lines, strings.Split(ed.view(), "\n")...)
	}
	// Keep the focused control on screen.
	if off := focusLine - (h - 6); off > 0 && off < len(lines) {
		lines = lines[off:]
	}
	return fitLines(strings.Join(lines, "\n"), w, h)
}

func (m appModel) viewPreview(w, h int) string {
	title := styleTitle().Render("Preview")
	if !m.deps.Form.Loaded() {
		return fitLines(title, w, h)
	}
	return fitLines(title+"\n"+previewText(m.deps.Form.Preview(), w), w, h)
}

func (m appModel) viewFooter(w int) string {
	var help string
	switch m.mode {
	case modeForm:
		help = "tab/shift+tab: next/prev  ctrl+d: delete box  esc: back"
	case modeConfirmDelete:
		help = "y: delete  n/esc: cancel"
	case modeHelp:
		help = "any key: close"
	case modeLoadPrompt:
		return padOrCutANSI(m.loadInput.View(), w) + "\n" + padOrCutANSI(styleMuted().Render("enter: load  esc: cancel"), w)
	default:
		help = "a: add  d: delete  j/k: select  J/K: move  b/c: add box  tab: edit  s: save  o: load  e/E: export  z: zip  ?: keys  q: quit"
	}
	status := m.status
	switch m.statusKind {
	case statusWarn:
		status = lipgloss.NewStyle().Foreground(colorWarn).Render(status)
	case statusError:
		status = lipgloss.NewStyle().Foreground(colorError).Render(status)
	}
	return padOrCutANSI(status, w) + "\n" + padOrCutANSI(styleMuted().Render(truncateToWidth(help, w)), w)
}

func boxTypeLabel(t model.BoxType) string {
	switch t {
	case model.BoxTypeCharacter:
		return "character"
	default:
		return "description"
	}
}
