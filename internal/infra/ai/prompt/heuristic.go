package prompt

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

// Counts mirrors the schema's counts object.
type Counts struct {
	Fatal   int `json:"fatal"`
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
	Usage   int `json:"usage"`
	Total   int `json:"total"`
}

// Fix is one grouped recommendation.
type Fix struct {
	Code           string   `json:"code"`
	Severity       string   `json:"severity"`
	Files          []string `json:"files"`
	Summary        string   `json:"summary"`
	Recommendation string   `json:"recommendation"`
}

// Suggestion matches the schema used by the system prompt.
type Suggestion struct {
	Package string `json:"package"`
	Counts  Counts `json:"counts"`
	Fixes   []Fix  `json:"fixes"`
	Advice  string `json:"advice"`
}

// rule prefix -> generic recommendation
var hints = map[string]string{
	"PKG": "Repack the container: mimetype must be the first entry and stored uncompressed.",
	"OPF": "Fix the package document: check manifest items, spine references and metadata.",
	"RSC": "Check that every referenced resource exists in the container and is listed in the manifest.",
	"HTM": "Fix the XHTML markup so it is well-formed and valid for the declared EPUB version.",
	"NAV": "Review the navigation document: every toc entry must point to a spine item.",
	"NCX": "Keep the NCX in sync with the navigation document or drop it for EPUB 3 only readers.",
	"CSS": "Review the stylesheet: remove unsupported properties and embed the fonts you use.",
	"MED": "Check media files: use core media types or provide fallbacks.",
	"ACC": "Add accessibility metadata and alt text where the report points to it.",
	"CHK": "The validator itself failed on this input; check the file is a real EPUB.",
}

// Heuristic builds advice without a model, grouping diagnostics by code.
// Used when no API key is configured.
func Heuristic(pkg string, diags []checks.Diagnostic) string {
	out := Suggestion{Package: pkg}
	c := checks.CountSeverities(diags)
	out.Counts = Counts{Fatal: c.Fatal, Error: c.Error, Warning: c.Warning, Info: c.Info, Usage: c.Usage, Total: c.Total}

	byCode := map[string]*Fix{}
	order := make([]string, 0)
	for _, d := range diags {
		f, ok := byCode[d.Code]
		if !ok {
			f = &Fix{
				Code:           d.Code,
				Severity:       strings.ToLower(string(d.Severity)),
				Summary:        trim(d.Message, 160),
				Recommendation: hintFor(d.Rule),
			}
			byCode[d.Code] = f
			order = append(order, d.Code)
		}
		if d.Resolved() && !contains(f.Files, d.Path) {
			f.Files = append(f.Files, d.Path)
		}
	}
	for _, code := range order {
		sort.Strings(byCode[code].Files)
		out.Fixes = append(out.Fixes, *byCode[code])
	}

	switch {
	case c.Fatal > 0:
		out.Advice = "The package could not be read completely; fix fatal errors first and validate again."
	case c.Error > 0:
		out.Advice = "Resolve the errors before distribution; most stores reject invalid packages."
	case c.Warning > 0:
		out.Advice = "The package is valid but the warnings are worth fixing for reading system compatibility."
	default:
		out.Advice = "Nothing blocking; the remaining messages are informational."
	}

	b, _ := json.Marshal(out)
	return string(b)
}

func hintFor(rule string) string {
	prefix, _, _ := strings.Cut(rule, "-")
	if h, ok := hints[prefix]; ok {
		return h
	}
	return "Look up the message code in the EPUBCheck documentation."
}

func trim(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
