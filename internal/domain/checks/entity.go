package checks

import (
	"time"
)

// ID tipe untuk Check
type CheckID string

// Status enum
type Status string

const (
	StatusRunning Status = "running"
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusFailed  Status = "failed"
)

// Severity is the category prefix EPUBCheck puts in front of every diagnostic.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
	SeverityUsage   Severity = "USAGE"
)

// Severities lists the recognized prefixes in the order EPUBCheck ranks them.
var Severities = []Severity{SeverityFatal, SeverityError, SeverityWarning, SeverityInfo, SeverityUsage}

// Class is the coarse grouping used for coloring rows.
type Class string

const (
	ClassError   Class = "error"
	ClassWarning Class = "warning"
	ClassInfo    Class = "info"
)

// ClassOf maps a severity to its display class.
func ClassOf(s Severity) Class {
	switch s {
	case SeverityError, SeverityFatal:
		return ClassError
	case SeverityWarning:
		return ClassWarning
	default:
		return ClassInfo
	}
}

// UnknownPath marks a diagnostic whose resource could not be resolved.
const UnknownPath = "NA"

// Diagnostic is one parsed EPUBCheck output line.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule,omitempty"`
	Path     string   `json:"path"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Display  string   `json:"display"`
}

// Class returns the coloring class of the diagnostic.
func (d Diagnostic) Class() Class { return ClassOf(d.Severity) }

// Resolved reports whether Path points into the package.
func (d Diagnostic) Resolved() bool { return d.Path != UnknownPath }

// SeverityCounts value object
type SeverityCounts struct {
	Fatal   int `json:"fatal"`
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
	Usage   int `json:"usage"`
	Total   int `json:"total"`
}

// Add counts one diagnostic.
func (c *SeverityCounts) Add(d Diagnostic) {
	switch d.Severity {
	case SeverityFatal:
		c.Fatal++
	case SeverityError:
		c.Error++
	case SeverityWarning:
		c.Warning++
	case SeverityInfo:
		c.Info++
	case SeverityUsage:
		c.Usage++
	}
	c.Total++
}

// HasErrors is true when any error or fatal diagnostic was reported.
func (c SeverityCounts) HasErrors() bool { return c.Error+c.Fatal > 0 }

// CountSeverities tallies a parsed report.
func CountSeverities(diags []Diagnostic) SeverityCounts {
	var c SeverityCounts
	for _, d := range diags {
		c.Add(d)
	}
	return c
}

// Aggregate Root: Check
type Check struct {
	ID               CheckID        `json:"id"`
	TenantID         string         `json:"tenant_id"`
	TriggeredAt      time.Time      `json:"triggered_at"`
	Package          string         `json:"package"`
	Status           Status         `json:"status"`
	Counts           SeverityCounts `json:"counts"`
	Diagnostics      []Diagnostic   `json:"diagnostics,omitempty"`
	Output           string         `json:"output,omitempty"`
	ExitCode         int            `json:"exit_code"`
	DurationMS       int64          `json:"duration_ms"`
	EPUBCheckVersion string         `json:"epubcheck_version,omitempty"`
	ArtifactURL      string         `json:"artifact_url,omitempty"`
	Locale           string         `json:"locale,omitempty"`
	Usage            bool           `json:"usage"`
	Source           string         `json:"source,omitempty"`
	Metadata         any            `json:"metadata,omitempty"`
}
