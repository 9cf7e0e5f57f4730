/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package tui is the terminal front-end: an access gate, the project list and the paginated
// segment editor, built on Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"transcribeer/internal/editor"
	"transcribeer/internal/export"
	"transcribeer/internal/projectfile"
)

type mode int

const (
	modeBrowse mode = iota
	modeEditLabel
	modeEditName
	modePrompt
)

type pane int

const (
	paneList pane = iota
	paneDetail
)

type promptKind int

const (
	promptUpload promptKind = iota
	promptImport
	promptExport
)

// doneMsg reports a finished background operation.
type doneMsg struct {
	op   string
	info string
	err  error
}

const listWidth = 32

type model struct {
	core *editor.App
	keys keyMap

	mode      mode
	focus     pane
	prompt    promptKind
	cursor    int
	editing   int
	editingID int64 // project the open label or name editor belongs to

	gate  textinput.Model
	list  list.Model
	pager paginator.Model
	label textarea.Model
	name  textinput.Model
	path  textinput.Model
	spin  spinner.Model
	help  help.Model

	alerts  []string
	confirm *confirmMsg
	status  string

	width, height int
}

func newModel(core *editor.App) model {
	gate := textinput.New()
	gate.Placeholder = "Password"
	gate.EchoMode = textinput.EchoPassword
	gate.EchoCharacter = '•'
	gate.Focus()

	d := list.NewDefaultDelegate()
	l := list.New(nil, d, listWidth, 20)
	l.Title = "Projects"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.Styles.Title = titleStyle

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.PerPage = editor.PageSize
	pg.ActiveDot = titleStyle.Render("•")
	pg.InactiveDot = mutedStyle.Render("•")

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.SetHeight(3)

	name := textinput.New()
	name.Prompt = "Name: "
	name.CharLimit = 200

	path := textinput.New()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	return model{
		core:      core,
		keys:      defaultKeyMap(),
		editing:   -1,
		editingID: -1,
		gate:      gate,
		list:      l,
		pager:     pg,
		label:     ta,
		name:      name,
		path:      path,
		spin:      sp,
		help:      help.New(),
		width:     100,
		height:    30,
	}
}

func (m model) Init() tea.Cmd {
	core := m.core
	return tea.Batch(
		func() tea.Msg {
			return doneMsg{op: "load", err: core.Initialize(context.Background())}
		},
		m.spin.Tick,
		textinput.Blink,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case changedMsg:
		m.sync()
		return m, nil
	case alertMsg:
		m.alerts = append(m.alerts, msg.text)
		return m, nil
	case confirmMsg:
		c := msg
		m.confirm = &c
		return m, nil
	case doneMsg:
		switch {
		case errors.Is(msg.err, editor.ErrCancelled):
			m.status = "Upload cancelled"
		case msg.err != nil:
			m.status = fmt.Sprintf("%s: %v", msg.op, msg.err)
		default:
			m.status = msg.info
		}
		m.sync()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) resize() {
	h := max(m.height-4, 5)
	m.list.SetSize(listWidth, h-2)
	m.label.SetWidth(max(m.width-listWidth-10, 20))
	m.help.Width = m.width
}

// sync pulls list and pagination state from the editor.
func (m *model) sync() {
	m.list.SetItems(projectItems(m.core.List()))
	if sel := m.core.Projects.Selected(); sel >= 0 && sel < len(m.list.Items()) {
		m.list.Select(sel)
	}
	st := m.core.Detail.State()
	if (m.mode == modeEditLabel || m.mode == modeEditName) && st.ProjectID != m.editingID {
		m.closeEditor()
		m.status = "Project changed; edit closed"
	}
	m.pager.SetTotalPages(st.Total)
	m.pager.Page = st.Page
	m.cursor = max(0, min(m.cursor, len(st.Rows)-1))
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if m.confirm != nil {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirm.reply <- true
			m.confirm = nil
		case key.Matches(msg, m.keys.Decline):
			m.confirm.reply <- false
			m.confirm = nil
		}
		return m, nil
	}
	if len(m.alerts) > 0 {
		m.alerts = m.alerts[1:]
		return m, nil
	}
	if m.core.Locked() {
		return m.updateGate(msg)
	}
	switch m.mode {
	case modeEditLabel:
		return m.updateEditLabel(msg)
	case modeEditName:
		return m.updateEditName(msg)
	case modePrompt:
		return m.updatePrompt(msg)
	}
	return m.updateBrowse(msg)
}

func (m model) updateGate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		if m.core.Authenticate(m.gate.Value()) {
			m.gate.Reset()
			m.gate.Blur()
			m.sync()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.gate, cmd = m.gate.Update(msg)
	return m, cmd
}

func (m model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	core := m.core
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.HelpToggle):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if m.focus == paneList {
			m.focus = paneDetail
		} else {
			m.focus = paneList
		}
		return m, nil
	case key.Matches(msg, m.keys.Upload):
		return m.openPrompt(promptUpload, "Audio file: ", "")
	case key.Matches(msg, m.keys.Import):
		return m.openPrompt(promptImport, "Project file: ", "")
	case key.Matches(msg, m.keys.Export):
		if core.Detail.State().Empty() {
			m.status = editor.EmptyStateText
			return m, nil
		}
		return m.openPrompt(promptExport, "Export to (.json/.html/.pdf): ", projectfile.DefaultFileName)
	case key.Matches(msg, m.keys.Undo):
		if !core.Detail.Undo() {
			m.status = "Nothing to undo"
		}
		m.sync()
		return m, nil
	case key.Matches(msg, m.keys.Redo):
		if !core.Detail.Redo() {
			m.status = "Nothing to redo"
		}
		m.sync()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		core.CancelUpload()
		return m, nil
	case key.Matches(msg, m.keys.Breaks):
		core.Detail.SetWithBreaks(!core.Detail.State().WithBreaks)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m, func() tea.Msg {
			sent, err := core.Detail.SubmitForTraining(context.Background())
			info := ""
			if sent {
				info = "Sent for training"
			}
			return doneMsg{op: "submit", info: info, err: err}
		}
	case key.Matches(msg, m.keys.Delete):
		return m, func() tea.Msg {
			removed, err := core.Detail.RemoveProject(context.Background())
			info := ""
			if removed {
				info = "Project removed"
			}
			return doneMsg{op: "delete", info: info, err: err}
		}
	}
	if m.focus == paneList {
		return m.updateList(msg)
	}
	return m.updateDetail(msg)
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Open) {
		i := m.list.Index()
		core := m.core
		m.cursor = 0
		m.focus = paneDetail
		return m, func() tea.Msg {
			core.Projects.Click(i)
			return doneMsg{op: "open"}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.core.Detail.State()
	if st.Empty() {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(0, m.cursor-1)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(len(st.Rows)-1, m.cursor+1)
	case key.Matches(msg, m.keys.PrevPage):
		m.core.Detail.SetPage(st.Page - 1)
		m.cursor = 0
		m.sync()
	case key.Matches(msg, m.keys.NextPage):
		m.core.Detail.SetPage(st.Page + 1)
		m.cursor = 0
		m.sync()
	case key.Matches(msg, m.keys.Play):
		if row, ok := m.row(st); ok {
			if err := m.core.Detail.PlayOrToggle(row.Index); err != nil {
				m.status = fmt.Sprintf("play: %v", err)
			}
		}
	case key.Matches(msg, m.keys.Stop):
		m.core.Detail.StopAudio()
	case key.Matches(msg, m.keys.Rename):
		m.mode = modeEditName
		m.editingID = st.ProjectID
		m.name.SetValue(st.Name)
		cmd := m.name.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.EditLabel):
		row, ok := m.row(st)
		if !ok {
			return m, nil
		}
		m.mode = modeEditLabel
		m.editingID = st.ProjectID
		m.editing = row.Index
		m.label.SetValue(row.Label)
		cmd := m.label.Focus()
		return m, cmd
	}
	return m, nil
}

func (m model) row(st editor.DetailState) (editor.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(st.Rows) {
		return editor.Row{}, false
	}
	return st.Rows[m.cursor], true
}

// closeEditor leaves label or name editing without further writes.
func (m *model) closeEditor() {
	m.mode = modeBrowse
	m.label.Blur()
	m.name.Blur()
	m.editing = -1
	m.editingID = -1
}

func (m model) updateEditLabel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.closeEditor()
		return m, nil
	}
	before := m.label.Value()
	var cmd tea.Cmd
	m.label, cmd = m.label.Update(msg)
	if v := m.label.Value(); v != before {
		if err := m.core.Detail.SetLabel(m.editingID, m.editing, v); err != nil {
			m.status = err.Error()
			if errors.Is(err, editor.ErrProjectChanged) {
				m.closeEditor()
				return m, nil
			}
		}
	}
	return m, cmd
}

func (m model) updateEditName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) || msg.Type == tea.KeyEnter {
		m.closeEditor()
		return m, nil
	}
	before := m.name.Value()
	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	if v := m.name.Value(); v != before {
		if err := m.core.Detail.SetName(m.editingID, v); err != nil {
			m.status = err.Error()
			m.closeEditor()
			return m, nil
		}
	}
	return m, cmd
}

func (m model) openPrompt(kind promptKind, prompt, value string) (tea.Model, tea.Cmd) {
	m.mode = modePrompt
	m.prompt = kind
	m.path.Prompt = prompt
	m.path.SetValue(value)
	m.path.CursorEnd()
	cmd := m.path.Focus()
	return m, cmd
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeBrowse
		m.path.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		p := strings.TrimSpace(m.path.Value())
		m.mode = modeBrowse
		m.path.Blur()
		if p == "" {
			return m, nil
		}
		switch m.prompt {
		case promptUpload:
			m.status = "Transcribing " + filepath.Base(p)
			return m, uploadCmd(m.core, p)
		case promptImport:
			return m, importCmd(m.core, p)
		default:
			return m, exportCmd(m.core, p)
		}
	}
	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func uploadCmd(core *editor.App, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return doneMsg{op: "upload", err: err}
		}
		defer f.Close()
		err = core.UploadAudio(context.Background(), filepath.Base(path), f)
		return doneMsg{op: "upload", info: "Transcribed " + filepath.Base(path), err: err}
	}
}

func importCmd(core *editor.App, path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return doneMsg{op: "import", err: err}
		}
		defer f.Close()
		err = core.ImportProjectFile(context.Background(), f)
		return doneMsg{op: "import", info: "Imported " + filepath.Base(path), err: err}
	}
}

var errExportFormat = errors.New("export format must be .json, .html or .pdf")

func exportCmd(core *editor.App, path string) tea.Cmd {
	return func() tea.Msg {
		var write func(io.Writer) error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			write = core.Detail.DownloadAsJSON
		case ".html", ".htm":
			write = core.Detail.DownloadAsDocument
		case ".pdf":
			write = core.Detail.DownloadAsPDF
		default:
			return doneMsg{op: "export", err: errExportFormat}
		}
		err := export.WriteFile(path, write)
		return doneMsg{op: "export", info: "Saved " + path, err: err}
	}
}

func (m model) View() string {
	var body string
	switch {
	case m.confirm != nil:
		body = m.modal(m.confirm.text + "\n\n" + mutedStyle.Render("y: yes   n: no"))
	case len(m.alerts) > 0:
		body = m.modal(m.alerts[0] + "\n\n" + mutedStyle.Render("press any key"))
	case m.core.Locked():
		body = m.viewGate()
	default:
		body = m.viewMain()
	}
	return body
}

func (m model) modal(content string) string {
	box := modalStyle.Width(min(60, max(m.width-4, 20))).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) viewGate() string {
	lines := []string{titleStyle.Render("Transcribeer"), "", m.gate.View()}
	if e := m.core.AuthError(); e != "" {
		lines = append(lines, errorStyle.Render(e))
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		modalStyle.Render(strings.Join(lines, "\n")))
}

func (m model) viewMain() string {
	header := titleStyle.Render("Transcribeer")
	if m.core.Loading() {
		header += "  " + m.spin.View() + " transcribing…"
	}
	if m.status != "" {
		header += "  " + mutedStyle.Render(m.status)
	}

	left, right := paneStyle, paneStyle
	if m.focus == paneList {
		left = activePaneStyle
	} else {
		right = activePaneStyle
	}
	h := max(m.height-4, 5)
	listView := left.Height(h).Render(m.list.View())
	detail := right.Width(max(m.width-listWidth-6, 20)).Height(h).Render(m.viewDetail())

	footer := m.help.View(m.keys)
	if m.mode == modePrompt {
		footer = m.path.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, listView, detail), footer)
}

func (m model) viewDetail() string {
	st := m.core.Detail.State()
	if st.Empty() {
		return mutedStyle.Render(editor.EmptyStateText)
	}
	var b strings.Builder
	if m.mode == modeEditName {
		b.WriteString(m.name.View())
	} else {
		b.WriteString(titleStyle.Render(st.Name))
	}
	breaks := "with breaks"
	if !st.WithBreaks {
		breaks = "no breaks"
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d segments · %s", st.Total, breaks)))
	b.WriteString("\n\n")

	width := max(m.width-listWidth-16, 10)
	for i, r := range st.Rows {
		mark := "  "
		if r.Index == st.Playing {
			mark = playingStyle.Render("▶ ")
		}
		if m.mode == modeEditLabel && r.Index == m.editing {
			b.WriteString(fmt.Sprintf("%s%3d ", mark, r.Index+1) + "\n" + m.label.View() + "\n")
			continue
		}
		line := fmt.Sprintf("%3d  %s", r.Index+1, truncate(r.Label, width))
		if i == m.cursor && m.focus == paneDetail {
			line = cursorStyle.Render(line)
		}
		b.WriteString(mark + line + "\n")
	}
	if st.PageCount > 1 {
		b.WriteString("\n" + m.pager.View() + mutedStyle.Render(fmt.Sprintf("  page %d/%d", st.Page+1, st.PageCount)))
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:max(n-1, 0)]) + "…"
}
