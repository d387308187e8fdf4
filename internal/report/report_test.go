package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

func sample() *checks.Check {
	diags := []checks.Diagnostic{
		{Code: "ERROR(RSC-005)", Severity: checks.SeverityError, Path: "OEBPS/content.xhtml", Line: 12,
			Message: "attribute <b> | x", Display: "content.xhtml Line: 12 ERROR(RSC-005): attribute <b> | x"},
		{Code: "WARNING(OPF-085)", Severity: checks.SeverityWarning, Path: checks.UnknownPath,
			Message: "uuid", Display: "NA WARNING(OPF-085): uuid"},
	}
	return &checks.Check{
		ID: "c1", Package: "book.epub", Status: checks.StatusInvalid,
		Diagnostics: diags, Counts: checks.CountSeverities(diags), EPUBCheckVersion: "v5.1.0",
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "MD": FormatMarkdown, "json": FormatJSON, "html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sample(), Options{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "content.xhtml Line: 12 ERROR(RSC-005): attribute <b> | x", lines[0])
	assert.Equal(t, "invalid: 0 fatal, 1 errors, 1 warnings, 0 info, 0 usage", lines[2])
}

func TestWrite_TextColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sample(), Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[31m")
	assert.Contains(t, buf.String(), "\x1b[33m")
}

func TestWrite_TextCleanRun(t *testing.T) {
	var buf bytes.Buffer
	c := &checks.Check{Status: checks.StatusValid, Output: "EPUBCheck v5.1.0\nNo errors or warnings detected."}
	require.NoError(t, Write(&buf, FormatText, c, Options{}))
	assert.Equal(t, "EPUBCheck v5.1.0\nNo errors or warnings detected.\n", buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample(), Options{}))
	var got checks.Check
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got.Diagnostics, 2)
	assert.Equal(t, 1, got.Counts.Error)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sample())
	assert.Contains(t, md, "# EPUBCheck report: book.epub")
	assert.Contains(t, md, "EPUBCheck v5.1.0, status **invalid**")
	assert.Contains(t, md, `| ERROR | ERROR(RSC-005) | OEBPS/content.xhtml | 12 |  | attribute &lt;b&gt; \| x |`)
	assert.Contains(t, md, "| WARNING | WARNING(OPF-085) | NA |  |  | uuid |")
}

func TestWrite_HTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatHTML, sample(), Options{}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h1>EPUBCheck report: book.epub</h1>")
	assert.NotContains(t, out, "<b>")
}
