package tui

import (
	"fmt"
	"os"
	"strings"

	"slidedeck-cli/internal/deck"
	"slidedeck-cli/internal/export"
	"slidedeck-cli/internal/form"
	"slidedeck-cli/internal/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		_, formW, _ := m.paneWidths()
		for i := range m.editors {
			m.editors[i].setWidth(formW - 4)
		}
		return m, nil

	case archiveDoneMsg:
		m.archiving = false
		if msg.res.Err != nil {
			m.report(msg.res.Err)
			return m, nil
		}
		m.info(fmt.Sprintf("exported %s (%s)", msg.res.File.Name, humanize.Bytes(uint64(msg.res.File.Size))))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		case modeLoadPrompt:
			return m.updateLoadPrompt(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeHelp:
			m.mode = modeList
			return m, nil
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.deps.Deck
	cur := d.CurrentIndex()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.mode = modeHelp

	case "up", "k":
		if d.SelectSlide(cur - 1) {
			m.rebuildEditors()
		}
	case "down", "j":
		if d.SelectSlide(cur + 1) {
			m.rebuildEditors()
		}
	case "K", "shift+up":
		if cur < 0 {
			m.report(deck.ErrNoSelection)
		} else if d.Reorder(cur, cur-1) {
			m.info(fmt.Sprintf("moved to position %d", cur))
		}
	case "J", "shift+down":
		if cur < 0 {
			m.report(deck.ErrNoSelection)
		} else if d.Reorder(cur, cur+1) {
			m.info(fmt.Sprintf("moved to position %d", cur+2))
		}

	case "a":
		idx := d.AddSlide()
		m.rebuildEditors()
		m.info(fmt.Sprintf("added slide %d", idx+1))
	case "d":
		if cur < 0 {
			m.report(deck.ErrNoSelection)
			return m, nil
		}
		m.pendingDelete = cur
		m.confirmFocus = confirmFocusCancel
		m.mode = modeConfirmDelete

	case "tab", "enter":
		if len(m.editors) == 0 {
			m.report(deck.ErrNoSelection)
			return m, nil
		}
		m.mode = modeForm
		cmd := m.editors[m.focus].focus()
		return m, cmd

	case "b":
		m.addBox(model.BoxTypeDescription)
	case "c":
		m.addBox(model.BoxTypeCharacter)

	case "s":
		f, err := m.deps.Persister.Save(m.ctx)
		if err != nil {
			m.report(err)
			return m, nil
		}
		m.info(fmt.Sprintf("saved %s (%s)", f.Name, humanize.Bytes(uint64(f.Size))))
	case "o":
		m.mode = modeLoadPrompt
		m.loadInput.SetValue("")
		cmd := m.loadInput.Focus()
		return m, cmd

	case "e":
		f, err := m.deps.Exporter.ExportCurrent(m.ctx)
		if err != nil {
			m.report(err)
			return m, nil
		}
		m.info(fmt.Sprintf("exported %s (%s)", f.Name, humanize.Bytes(uint64(f.Size))))
	case "E":
		files, err := m.deps.Exporter.ExportAll(m.ctx)
		if err != nil {
			m.report(err)
			return m, nil
		}
		var total int
		for _, f := range files {
			total += f.Size
		}
		m.info(fmt.Sprintf("exported %d files (%s)", len(files), humanize.Bytes(uint64(total))))
	case "z":
		if m.archiving {
			return m, nil
		}
		ch, err := m.deps.Exporter.ExportArchive(m.ctx)
		if err != nil {
			m.report(err)
			return m, nil
		}
		m.archiving = true
		m.info("building archive…")
		return m, waitArchive(ch)
	}
	return m, nil
}

func waitArchive(ch <-chan export.ArchiveResult) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return archiveDoneMsg{res: export.ArchiveResult{Err: fmt.Errorf("archive export aborted")}}
		}
		return archiveDoneMsg{res: res}
	}
}

func (m *appModel) addBox(t model.BoxType) {
	id, err := m.deps.Form.AddBox(t)
	if err != nil {
		if err == form.ErrNotLoaded {
			err = deck.ErrNoSelection
		}
		m.report(err)
		return
	}
	m.rebuildEditors()
	m.info(fmt.Sprintf("added %s box %d", boxTypeLabel(t), id))
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.editors) == 0 {
		m.mode = modeList
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.editors[m.focus].blur()
		m.mode = modeList
		return m, nil
	case "tab":
		cmd := m.moveFocus(1)
		return m, cmd
	case "shift+tab":
		cmd := m.moveFocus(-1)
		return m, cmd
	case "ctrl+d":
		id := m.editors[m.focus].boxID
		if id == 0 {
			m.report(deck.UserActionError{Msg: "focus a box to delete it"})
			return m, nil
		}
		if m.deps.Form.DeleteBox(id) {
			m.rebuildEditors()
			m.info(fmt.Sprintf("deleted box %d", id))
		}
		return m, nil
	}

	ed := &m.editors[m.focus]
	before := ed.value()
	cmd := ed.update(msg)
	if after := ed.value(); after != before {
		var err error
		if ed.boxID == 0 {
			err = m.deps.Form.SetField(ed.field, after)
		} else {
			err = m.deps.Form.SetBoxField(ed.boxID, ed.field, after)
		}
		m.report(err)
	}
	return m, cmd
}

func (m *appModel) moveFocus(delta int) tea.Cmd {
	n := len(m.editors)
	m.editors[m.focus].blur()
	m.focus = ((m.focus+delta)%n + n) % n
	return m.editors[m.focus].focus()
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.deleteSlide()
	case "n", "esc":
		m.mode = modeList
		m.info("delete cancelled")
	case "tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusCancel {
			m.confirmFocus = confirmFocusConfirm
		} else {
			m.confirmFocus = confirmFocusCancel
		}
	case "enter":
		if m.confirmFocus == confirmFocusConfirm {
			m.deleteSlide()
		} else {
			m.mode = modeList
			m.info("delete cancelled")
		}
	}
	return m, nil
}

func (m *appModel) deleteSlide() {
	m.mode = modeList
	idx := m.pendingDelete
	if !m.deps.Deck.DeleteSlide(idx, deck.Confirmed) {
		m.report(deck.ErrNoSelection)
		return
	}
	m.rebuildEditors()
	m.info(fmt.Sprintf("deleted slide %d", idx+1))
}

func (m appModel) updateLoadPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.loadInput.Blur()
		m.mode = modeList
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.loadInput.Value())
		m.loadInput.Blur()
		m.mode = modeList
		if path == "" {
			return m, nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			m.report(err)
			return m, nil
		}
		proj, err := m.deps.Persister.Load(m.ctx, b)
		if err != nil {
			m.report(err)
			return m, nil
		}
		m.focus = 0
		m.rebuildEditors()
		m.info(fmt.Sprintf("loaded %d slides", len(proj.Slides)))
		return m, nil
	}
	var cmd tea.Cmd
	m.loadInput, cmd = m.loadInput.Update(msg)
	return m, cmd
}
