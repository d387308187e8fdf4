package checks

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrJavaFatal means the JVM itself failed before EPUBCheck produced a report.
var ErrJavaFatal = errors.New("fatal java error")

// ErrUnknownFile and ErrUnknownLine explain why a diagnostic cannot be opened.
var (
	ErrUnknownFile = errors.New("unknown file name")
	ErrUnknownLine = errors.New("unknown line number")
)

// Explain turns a Target error into the title and text shown to the user.
func Explain(err error) (string, string) {
	switch {
	case errors.Is(err, ErrUnknownFile):
		return "Unknown file name", "EPUBCheck didn't report the name of the file that caused this error."
	case errors.Is(err, ErrUnknownLine):
		return "Unknown line number", "EPUBCheck didn't report a line number for this error."
	case err == nil:
		return "", ""
	default:
		return "Error", err.Error()
	}
}

var rxFindings = regexp.MustCompile(`(INFO|USAGE|WARNING)\(.*?\)`)

// Outcome describes what a finished EPUBCheck run produced.
type Outcome int

const (
	// OutcomeClean: no diagnostics, stdout holds the summary text.
	OutcomeClean Outcome = iota
	// OutcomeFindings: stderr holds diagnostic lines to parse.
	OutcomeFindings
)

// ClassifyOutput decides how to treat a run's output. A JVM failure is
// returned as an error wrapping ErrJavaFatal.
func ClassifyOutput(exitCode int, stdout, stderr string) (Outcome, error) {
	if exitCode == 1 && strings.Contains(stderr, "java.lang.") {
		return OutcomeClean, fmt.Errorf("%w: %s", ErrJavaFatal, strings.TrimSpace(stdout+"\n"+stderr))
	}
	if exitCode != 0 || rxFindings.MatchString(stderr) {
		return OutcomeFindings, nil
	}
	return OutcomeClean, nil
}

// ReportText joins the streams the parser should see. USAGE lines go to
// stdout, so they are appended when usage output was requested.
func ReportText(res RunResult, usage bool) string {
	if usage {
		return res.Stderr + res.Stdout
	}
	return res.Stderr
}

// CleanText is the text shown when no diagnostics were reported.
func CleanText(stdout, version string) string {
	if version == "" {
		return stdout
	}
	return "EPUBCheck " + version + "\n" + stdout
}

// Target is where an editor should jump for a diagnostic.
type Target struct {
	Path   string
	Line   int
	Column int
}

// Target resolves the navigation target. It is called when the user picks a
// row, not while parsing.
func (d Diagnostic) Target() (Target, error) {
	if !d.Resolved() {
		return Target{}, ErrUnknownFile
	}
	if d.Line <= 0 {
		return Target{}, ErrUnknownLine
	}
	return Target{Path: d.Path, Line: d.Line, Column: d.Column}, nil
}
