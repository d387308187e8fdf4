package tui

import (
	"errors"
	"os/exec"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

func testCheck() *checks.Check {
	diags := []checks.Diagnostic{
		{Code: "ERROR(RSC-005)", Severity: checks.SeverityError, Path: "OEBPS/a.xhtml", Line: 12, Column: 3, Display: "a.xhtml Line: 12 Col: 3 ERROR(RSC-005): x"},
		{Code: "WARNING(OPF-085)", Severity: checks.SeverityWarning, Path: checks.UnknownPath, Line: 2, Display: "NA Line: 2 WARNING(OPF-085): y"},
		{Code: "INFO(CSS-007)", Severity: checks.SeverityInfo, Path: "OEBPS/s.css", Display: "s.css INFO(CSS-007): z"},
	}
	return &checks.Check{Package: "book.epub", Status: checks.StatusInvalid, Diagnostics: diags, Counts: checks.CountSeverities(diags)}
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func TestEnter_ShowsLocationWithoutEditor(t *testing.T) {
	m := New(testCheck(), Options{})
	assert.Nil(t, press(m, enter))
	assert.Equal(t, "OEBPS/a.xhtml line 12 col 3", m.Status())
}

func TestEnter_UnknownFile(t *testing.T) {
	m := New(testCheck(), Options{})
	press(m, down)
	press(m, enter)
	assert.Contains(t, m.Status(), "Unknown file name")
}

func TestEnter_UnknownLine(t *testing.T) {
	m := New(testCheck(), Options{})
	press(m, down)
	press(m, down)
	press(m, enter)
	title, _ := checks.Explain(checks.ErrUnknownLine)
	assert.Contains(t, m.Status(), title)
}

func TestEnter_OpensEditor(t *testing.T) {
	var got checks.Target
	m := New(testCheck(), Options{Open: func(tgt checks.Target) (*exec.Cmd, error) {
		got = tgt
		return exec.Command("true"), nil
	}})
	assert.NotNil(t, press(m, enter))
	assert.Equal(t, checks.Target{Path: "OEBPS/a.xhtml", Line: 12, Column: 3}, got)
}

func TestCopy(t *testing.T) {
	var copied string
	m := New(testCheck(), Options{Copy: func(s string) error { copied = s; return nil }})
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Equal(t, "a.xhtml Line: 12 Col: 3 ERROR(RSC-005): x", copied)
	assert.Equal(t, "copied", m.Status())

	m.opts.Copy = func(string) error { return errors.New("no display") }
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Equal(t, "clipboard: no display", m.Status())
}

func TestQuit(t *testing.T) {
	m := New(testCheck(), Options{})
	cmd := press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	m := New(testCheck(), Options{})
	out := m.View()
	assert.Contains(t, out, "book.epub")
	assert.Contains(t, out, "a.xhtml Line: 12 Col: 3 ERROR(RSC-005): x")
}

func TestEditorArgs(t *testing.T) {
	tgt := checks.Target{Path: "OEBPS/a.xhtml", Line: 4}
	file := filepath.Join("/book", "OEBPS", "a.xhtml")

	args, err := EditorArgs("code -g {file}:{line}:{col}", "/book", tgt)
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "-g", file + ":4:1"}, args)

	args, err = EditorArgs("vim +{line}", "/book", tgt)
	require.NoError(t, err)
	assert.Equal(t, []string{"vim", "+4", file}, args)

	_, err = EditorArgs("  ", "/book", tgt)
	assert.ErrorIs(t, err, ErrNoEditor)
}
