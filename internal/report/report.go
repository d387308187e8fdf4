// Package report renders a finished check for people and machines.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat accepts the format names plus the usual short forms.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the HTTP media type of a format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

type Options struct {
	// Color enables ANSI colors in text output.
	Color bool
}

// Write renders c in the given format.
func Write(w io.Writer, f Format, c *checks.Check, opts Options) error {
	switch f {
	case FormatText:
		return writeText(w, c, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(c))
		return err
	case FormatHTML:
		return writeHTML(w, c)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

var classColors = map[checks.Class]color.Attribute{
	checks.ClassError:   color.FgRed,
	checks.ClassWarning: color.FgYellow,
	checks.ClassInfo:    color.FgCyan,
}

func writeText(w io.Writer, c *checks.Check, opts Options) error {
	if len(c.Diagnostics) == 0 {
		_, err := io.WriteString(w, ensureNewline(c.Output))
		return err
	}
	for _, d := range c.Diagnostics {
		p := color.New(classColors[d.Class()])
		if opts.Color {
			p.EnableColor()
		} else {
			p.DisableColor()
		}
		if _, err := p.Fprintln(w, d.Display); err != nil {
			return err
		}
	}
	sum := color.New(color.Bold)
	if opts.Color {
		sum.EnableColor()
	} else {
		sum.DisableColor()
	}
	_, err := sum.Fprintln(w, summaryLine(c))
	return err
}

func summaryLine(c *checks.Check) string {
	n := c.Counts
	return fmt.Sprintf("%s: %d fatal, %d errors, %d warnings, %d info, %d usage",
		c.Status, n.Fatal, n.Error, n.Warning, n.Info, n.Usage)
}

// Markdown renders the check as a GitHub flavoured table.
func Markdown(c *checks.Check) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# EPUBCheck report: %s\n\n", mdEscape(c.Package))
	if c.EPUBCheckVersion != "" {
		fmt.Fprintf(&b, "EPUBCheck %s, ", c.EPUBCheckVersion)
	}
	fmt.Fprintf(&b, "status **%s**\n\n", c.Status)

	b.WriteString("| Fatal | Error | Warning | Info | Usage |\n|---|---|---|---|---|\n")
	n := c.Counts
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n", n.Fatal, n.Error, n.Warning, n.Info, n.Usage)

	if len(c.Diagnostics) == 0 {
		if out := strings.TrimSpace(c.Output); out != "" {
			b.WriteString("```\n" + out + "\n```\n")
		}
		return b.String()
	}

	b.WriteString("| Severity | Code | File | Line | Col | Message |\n|---|---|---|---|---|---|\n")
	for _, d := range c.Diagnostics {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			d.Severity, mdEscape(d.Code), mdEscape(d.Path), num(d.Line), num(d.Column), mdEscape(d.Message))
	}
	return b.String()
}

func writeHTML(w io.Writer, c *checks.Check) error {
	var body bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := md.Convert([]byte(Markdown(c)), &body); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n%s</body></html>\n",
		html.EscapeString(c.Package), body.String())
	return err
}

func num(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

var mdReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "<", "&lt;", ">", "&gt;")

func mdEscape(s string) string { return mdReplacer.Replace(s) }

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
