// Package tui shows a parsed report as a navigable list.
package tui

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

var (
	classStyles = map[checks.Class]lipgloss.Style{
		checks.ClassError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		checks.ClassWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		checks.ClassInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
	selectedStyle = lipgloss.NewStyle().Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type row struct{ d checks.Diagnostic }

func (r row) FilterValue() string { return r.d.Display }

type rowDelegate struct{}

func (rowDelegate) Height() int                         { return 1 }
func (rowDelegate) Spacing() int                        { return 0 }
func (rowDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(row)
	if !ok {
		return
	}
	style := classStyles[r.d.Class()]
	prefix := "  "
	if index == m.Index() {
		prefix = "> "
		style = style.Inherit(selectedStyle)
	}
	fmt.Fprint(w, prefix+style.Render(r.d.Display))
}

// Opener builds the command that shows a location in an editor.
type Opener func(t checks.Target) (*exec.Cmd, error)

type Options struct {
	// Open is nil when the checked input was a packaged file; the
	// location is then only shown.
	Open Opener
	// Copy puts the selected row on the clipboard; nil disables "c".
	Copy func(string) error
}

type editorDoneMsg struct{ err error }

type Model struct {
	list   list.Model
	status string
	opts   Options
}

var (
	keyOpen = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go to"))
	keyCopy = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy"))
	keyQuit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
)

// New builds the list for one check.
func New(c *checks.Check, opts Options) *Model {
	items := make([]list.Item, len(c.Diagnostics))
	for i, d := range c.Diagnostics {
		items[i] = row{d: d}
	}
	l := list.New(items, rowDelegate{}, 100, 20)
	l.Title = fmt.Sprintf("%s  %s  %d errors, %d warnings",
		c.Package, c.Status, c.Counts.Error+c.Counts.Fatal, c.Counts.Warning)
	l.SetShowStatusBar(false)
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{keyOpen, keyCopy} }
	return &Model{list: l, opts: opts}
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)
		return m, nil
	case editorDoneMsg:
		if msg.err != nil {
			m.status = "editor: " + msg.err.Error()
		}
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keyQuit):
			return m, tea.Quit
		case key.Matches(msg, keyOpen):
			return m, m.open()
		case key.Matches(msg, keyCopy):
			m.copy()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) open() tea.Cmd {
	r, ok := m.list.SelectedItem().(row)
	if !ok {
		return nil
	}
	t, err := r.d.Target()
	if err != nil {
		title, text := checks.Explain(err)
		m.status = title + ": " + text
		return nil
	}
	if m.opts.Open == nil {
		m.status = describe(t)
		return nil
	}
	cmd, err := m.opts.Open(t)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.status = ""
	return tea.ExecProcess(cmd, func(err error) tea.Msg { return editorDoneMsg{err: err} })
}

func (m *Model) copy() {
	if m.opts.Copy == nil {
		return
	}
	r, ok := m.list.SelectedItem().(row)
	if !ok {
		return
	}
	if err := m.opts.Copy(r.d.Display); err != nil {
		m.status = "clipboard: " + err.Error()
		return
	}
	m.status = "copied"
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}

// Status is the text of the status line.
func (m *Model) Status() string { return m.status }

func describe(t checks.Target) string {
	s := fmt.Sprintf("%s line %d", t.Path, t.Line)
	if t.Column > 0 {
		s += fmt.Sprintf(" col %d", t.Column)
	}
	return s
}

// Run shows the list until the user quits.
func Run(c *checks.Check, opts Options) error {
	_, err := tea.NewProgram(New(c, opts), tea.WithAltScreen()).Run()
	return err
}
