package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

// maxDiagnostics caps how many report lines are sent to the model.
const maxDiagnostics = 200

// SystemPrompt provides strict directions and schema for JSON output.
func SystemPrompt() string {
	return `You are a senior EPUB production engineer. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Use the severity values as given: fatal, error, warning, info, usage.
- counts must match the diagnostics you were given, not the ones you group.
- fixes is an array grouped by message code; each fix names the files it touches.
- Prefer concrete edits to the OPF, navigation document or XHTML markup over general advice.

Schema (example with empty values):
{
  "package": "<string>",
  "counts": {"fatal": 0, "error": 0, "warning": 0, "info": 0, "usage": 0, "total": 0},
  "fixes": [
    {
      "code": "<string>",
      "severity": "<fatal|error|warning|info|usage>",
      "files": ["<string>"],
      "summary": "<string>",
      "recommendation": "<string>"
    }
  ],
  "advice": "<string>"
}`
}

// UserPrompt lists the parsed diagnostics of one package, one per line.
func UserPrompt(pkg string, diags []checks.Diagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EPUBCheck report for %s. Respond with the JSON per schema.\n", pkg)
	for i, d := range diags {
		if i == maxDiagnostics {
			fmt.Fprintf(&b, "... %d more not shown\n", len(diags)-maxDiagnostics)
			break
		}
		b.WriteString(d.Code)
		b.WriteString(" ")
		b.WriteString(d.Path)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
			if d.Column > 0 {
				fmt.Fprintf(&b, ":%d", d.Column)
			}
		}
		b.WriteString(" ")
		b.WriteString(d.Message)
		b.WriteString("\n")
	}
	return b.String()
}
