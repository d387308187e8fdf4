package checks

import (
	"regexp"
	"strconv"
	"strings"
)

// driveMark replaces the colon of a neutralized drive letter. It is not a
// colon, so the field split never sees it.
const driveMark = "\x1a"

var (
	rxCoords = regexp.MustCompile(`\((-?\d+),(-?\d+)\)`)
	rxRule   = regexp.MustCompile(`^[A-Z]+\((.*)\)$`)
)

// PathStyle decides how absolute paths in EPUBCheck output are treated.
// It is chosen once per run and passed to ParseReport.
type PathStyle struct {
	windows bool
	rxDrive *regexp.Regexp
}

// PosixPaths is the style for hosts without drive letters.
func PosixPaths() PathStyle { return PathStyle{} }

// WindowsPaths neutralizes the given drive (e.g. "C:" or "c") before the
// colon split. An empty drive matches any letter.
func WindowsPaths(drive string) PathStyle {
	letter := `[A-Za-z]`
	if d := strings.TrimSuffix(strings.TrimSpace(drive), ":"); len(d) == 1 {
		letter = regexp.QuoteMeta(d)
	}
	return PathStyle{
		windows: true,
		rxDrive: regexp.MustCompile(`(?i)(^|[^A-Za-z0-9])(` + letter + `):([\\/])`),
	}
}

// HostPathStyle picks the style for goos; on windows the drive comes from
// the temp directory EPUBCheck is run from.
func HostPathStyle(goos, tempDir string) PathStyle {
	if goos != "windows" {
		return PosixPaths()
	}
	drive := ""
	if len(tempDir) >= 2 && tempDir[1] == ':' {
		drive = tempDir[:1]
	}
	return WindowsPaths(drive)
}

// ForInput keeps the style but takes the drive from the path EPUBCheck is
// given; paths in its output start with that drive, wherever the temp
// directory lives.
func (p PathStyle) ForInput(epubPath string) PathStyle {
	if !p.windows {
		return p
	}
	return HostPathStyle("windows", epubPath)
}

// Windows reports whether drive letters are neutralized.
func (p PathStyle) Windows() bool { return p.windows }

func (p PathStyle) neutralize(line string) string {
	if !p.windows {
		return line
	}
	return p.rxDrive.ReplaceAllString(line, "${1}${2}"+driveMark+"${3}")
}

func (p PathStyle) restore(s string) string {
	if !p.windows {
		return s
	}
	return strings.ReplaceAll(s, driveMark, ":")
}

// IsDiagnosticLine reports whether the line starts with a recognized severity.
func IsDiagnosticLine(line string) bool {
	for _, s := range Severities {
		if strings.HasPrefix(line, string(s)) {
			return true
		}
	}
	return false
}

// ParseReport converts raw EPUBCheck output into diagnostics, one per
// recognized line, in output order. Lines that do not fit the
// code:location:message grammar are skipped.
func ParseReport(raw string, names NameIndex, style PathStyle) []Diagnostic {
	var out []Diagnostic
	for _, line := range splitLines(raw) {
		if !IsDiagnosticLine(line) {
			continue
		}
		d, ok := ParseLine(line, names, style)
		if !ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ParseLine parses a single diagnostic line. ok is false when the line has
// fewer than three colon separated fields.
func ParseLine(line string, names NameIndex, style PathStyle) (Diagnostic, bool) {
	line = style.neutralize(line)

	// message boleh mengandung ':' jadi cukup split jadi 3 bagian
	fields := strings.SplitN(line, ":", 3)
	if len(fields) < 3 {
		return Diagnostic{}, false
	}
	code := strings.TrimSpace(fields[0])
	location := fields[1]
	msg := strings.TrimSpace(style.restore(fields[2]))

	name := location
	var lineNo, colNo int
	if m := rxCoords.FindStringSubmatch(location); m != nil {
		name = rxCoords.ReplaceAllString(location, "")
		lineNo = coordinate(m[1])
		colNo = coordinate(m[2])
	}
	name = baseName(strings.TrimSpace(style.restore(name)))

	path := names.Resolve(name)
	d := Diagnostic{
		Code:     code,
		Severity: severityOf(code),
		Rule:     ruleOf(code),
		Path:     path,
		Line:     lineNo,
		Column:   colNo,
		Message:  msg,
	}
	d.Display = displayMessage(d)
	return d, true
}

func displayMessage(d Diagnostic) string {
	var b strings.Builder
	b.WriteString(baseName(d.Path))
	if d.Line > 0 {
		b.WriteString(" Line: ")
		b.WriteString(strconv.Itoa(d.Line))
	} else {
		b.WriteString(" ")
	}
	if d.Column > 0 {
		b.WriteString(" Col: ")
		b.WriteString(strconv.Itoa(d.Column))
		b.WriteString(" ")
	} else if d.Line > 0 {
		b.WriteString(" ")
	}
	b.WriteString(d.Code)
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// coordinate returns 0 for EPUBCheck's -1 sentinel and anything else that
// cannot be a 1-based position.
func coordinate(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// baseName strips directories separated by either slash flavour, whatever
// the host is.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func severityOf(code string) Severity {
	for _, s := range Severities {
		if strings.HasPrefix(code, string(s)) {
			return s
		}
	}
	return Severity(code)
}

func ruleOf(code string) string {
	if m := rxRule.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	return ""
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}
