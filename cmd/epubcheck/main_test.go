package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

func TestColorEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	on, err := colorEnabled("auto", true)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = colorEnabled("auto", false)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = colorEnabled("ON", false)
	require.NoError(t, err)
	assert.True(t, on)

	_, err = colorEnabled("rainbow", true)
	assert.Error(t, err)
}

func TestExitStatus(t *testing.T) {
	assert.NoError(t, exitStatus(&checks.Check{Status: checks.StatusValid, Counts: checks.SeverityCounts{Warning: 3}}))
	assert.ErrorIs(t, exitStatus(&checks.Check{Status: checks.StatusInvalid, Counts: checks.SeverityCounts{Error: 1}}), errFindings)
	assert.ErrorIs(t, exitStatus(&checks.Check{Status: checks.StatusInvalid, Counts: checks.SeverityCounts{Fatal: 1}}), errFindings)
	assert.ErrorIs(t, exitStatus(&checks.Check{Status: checks.StatusFailed}), errFindings)
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, nil))
	assert.Equal(t, "No checks yet.\n", buf.String())

	buf.Reset()
	require.NoError(t, printHistory(&buf, []*checks.Check{{
		Package: "book.epub", Status: checks.StatusInvalid, TriggeredAt: time.Now(),
		Counts: checks.SeverityCounts{Error: 2, Fatal: 1, Warning: 4}, EPUBCheckVersion: "v5.1.0",
	}}))
	assert.Contains(t, buf.String(), "PACKAGE")
	assert.Regexp(t, `book\.epub\s+invalid\s+3\s+4\s+v5\.1\.0`, buf.String())
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range []interface{ Name() string }{checkCmd, updateCmd, historyCmd, versionCmd} {
		names[c.Name()] = true
	}
	assert.Equal(t, map[string]bool{"check": true, "update": true, "history": true, "version": true}, names)
	assert.NotNil(t, checkCmd.Flags().Lookup("tui"))
	assert.NotNil(t, checkCmd.Flags().Lookup("no-update"))
}
