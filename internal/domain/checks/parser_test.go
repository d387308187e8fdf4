package checks_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

var testNames = NewNameIndex([]string{
	"mimetype",
	"META-INF/container.xml",
	"OEBPS/content.opf",
	"OEBPS/content.xhtml",
	"OEBPS/nav.xhtml",
	"OEBPS/Text/chapter1.xhtml",
})

func TestParseReport_LineWithoutColumn(t *testing.T) {
	got := ParseReport("ERROR(RSC-005): content.xhtml(12,-1): Some message", testNames, PosixPaths())
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, "ERROR(RSC-005)", d.Code)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "RSC-005", d.Rule)
	assert.Equal(t, "OEBPS/content.xhtml", d.Path)
	assert.Equal(t, 12, d.Line)
	assert.Equal(t, 0, d.Column)
	assert.Equal(t, "Some message", d.Message)
	assert.Equal(t, "content.xhtml Line: 12 ERROR(RSC-005): Some message", d.Display)
}

func TestParseReport_NoCoordinates(t *testing.T) {
	got := ParseReport("WARNING(HTM-014): nav.xhtml: unreferenced resource", testNames, PosixPaths())
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, "OEBPS/nav.xhtml", d.Path)
	assert.Zero(t, d.Line)
	assert.Zero(t, d.Column)
	assert.Equal(t, "nav.xhtml WARNING(HTM-014): unreferenced resource", d.Display)
	assert.Equal(t, ClassWarning, d.Class())
}

func TestParseReport_DisplayVariants(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		display string
	}{
		{
			name:    "line and column",
			line:    "ERROR(RSC-012): /tmp/x/temp.epub/OEBPS/Text/chapter1.xhtml(5,10): Fragment identifier is not defined.",
			display: "chapter1.xhtml Line: 5 Col: 10 ERROR(RSC-012): Fragment identifier is not defined.",
		},
		{
			name:    "column only",
			line:    "INFO(CSS-007): content.xhtml(-1,7): Font-face reference",
			display: "content.xhtml  Col: 7 INFO(CSS-007): Font-face reference",
		},
		{
			name:    "both sentinels",
			line:    "FATAL(RSC-016): content.opf(-1,-1): Fatal Error while parsing file",
			display: "content.opf FATAL(RSC-016): Fatal Error while parsing file",
		},
		{
			name:    "unknown file",
			line:    "ERROR(PKG-006): temp.epub: Mimetype file entry is missing",
			display: "NA ERROR(PKG-006): Mimetype file entry is missing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReport(tt.line, testNames, PosixPaths())
			require.Len(t, got, 1)
			assert.Equal(t, tt.display, got[0].Display)
		})
	}
}

func TestParseReport_MessageKeepsColons(t *testing.T) {
	line := `ERROR(RSC-007): content.xhtml(3,4): Referenced resource could not be found: "OEBPS/a:b.xhtml": check href`
	got := ParseReport(line, testNames, PosixPaths())
	require.Len(t, got, 1)
	assert.Equal(t, `Referenced resource could not be found: "OEBPS/a:b.xhtml": check href`, got[0].Message)
	assert.Equal(t, 3, got[0].Line)
	assert.Equal(t, 4, got[0].Column)
}

func TestParseReport_UnknownFileStillEmitted(t *testing.T) {
	got := ParseReport("ERROR(RSC-001): missing.xhtml(1,1): File could not be found", testNames, PosixPaths())
	require.Len(t, got, 1)
	assert.Equal(t, UnknownPath, got[0].Path)
	assert.False(t, got[0].Resolved())
	assert.Equal(t, 1, got[0].Line)
}

func TestParseReport_SkipsNonDiagnosticLines(t *testing.T) {
	raw := strings.Join([]string{
		"Validating using EPUB version 3.3 rules.",
		"",
		"ERROR(RSC-005): content.xhtml(12,-1): Some message",
		"\tat java.base/java.lang.Thread.run(Thread.java:833)",
		"ERROR no colons here",
		"FATAL(PKG-008): only two fields",
		"Check finished with errors",
		"Messages: 0 fatals / 1 error / 0 warnings / 0 infos",
		"warning(lowercase): content.xhtml: not a recognized prefix",
	}, "\n")

	got := ParseReport(raw, testNames, PosixPaths())
	require.Len(t, got, 1)
	assert.Equal(t, "ERROR(RSC-005)", got[0].Code)
}

func TestParseReport_EmptyInput(t *testing.T) {
	assert.Empty(t, ParseReport("", testNames, PosixPaths()))
	assert.Empty(t, ParseReport("\n\n", nil, PosixPaths()))
}

func TestParseReport_PreservesOrderAndIsIdempotent(t *testing.T) {
	raw := "WARNING(OPF-085): content.opf(10,5): dc:identifier is not a valid UUID\r\n" +
		"noise\r\n" +
		"ERROR(RSC-005): content.xhtml(12,-1): Some message\r\n" +
		"USAGE(ACC-009): nav.xhtml(4,2): Navigation hint\r\n"

	first := ParseReport(raw, testNames, PosixPaths())
	second := ParseReport(raw, testNames, PosixPaths())
	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	assert.LessOrEqual(t, len(first), len(strings.Split(raw, "\n")))
	assert.Equal(t, []Severity{SeverityWarning, SeverityError, SeverityUsage},
		[]Severity{first[0].Severity, first[1].Severity, first[2].Severity})
	assert.Equal(t, "dc:identifier is not a valid UUID", first[0].Message)
}

func TestParseReport_WindowsDriveRoundTrip(t *testing.T) {
	posix := ParseReport(
		"ERROR(RSC-005): /tmp/x/content.xhtml(3,4): Error while parsing file: c:/fonts is invalid",
		testNames, PosixPaths())
	windows := ParseReport(
		`ERROR(RSC-005): C:\Temp\x\content.xhtml(3,4): Error while parsing file: c:/fonts is invalid`,
		testNames, WindowsPaths("C:"))

	require.Len(t, posix, 1)
	require.Len(t, windows, 1)
	assert.Equal(t, posix[0].Path, windows[0].Path)
	assert.Equal(t, posix[0].Line, windows[0].Line)
	assert.Equal(t, posix[0].Column, windows[0].Column)
	assert.Equal(t, "OEBPS/content.xhtml", windows[0].Path)
	assert.Equal(t, "Error while parsing file: c:/fonts is invalid", windows[0].Message)
	assert.Equal(t, posix[0].Display, windows[0].Display)
}

func TestParseReport_WindowsPathNeedsNeutralizing(t *testing.T) {
	line := `ERROR(RSC-005): C:\Temp\x\content.xhtml(3,4): msg`

	broken := ParseReport(line, testNames, PosixPaths())
	require.Len(t, broken, 1)
	assert.Equal(t, UnknownPath, broken[0].Path)

	fixed := ParseReport(line, testNames, WindowsPaths(""))
	require.Len(t, fixed, 1)
	assert.Equal(t, "OEBPS/content.xhtml", fixed[0].Path)
	assert.Equal(t, "msg", fixed[0].Message)
}

func TestParseReport_WindowsDriveCaseInsensitive(t *testing.T) {
	got := ParseReport(`WARNING(CSS-017): c:\temp\nav.xhtml(-1,9): message on c:\temp\nav.xhtml`, testNames, WindowsPaths("C"))
	require.Len(t, got, 1)
	assert.Equal(t, "OEBPS/nav.xhtml", got[0].Path)
	assert.Zero(t, got[0].Line)
	assert.Equal(t, 9, got[0].Column)
	assert.Equal(t, `message on c:\temp\nav.xhtml`, got[0].Message)
}

func TestHostPathStyle(t *testing.T) {
	assert.False(t, HostPathStyle("linux", "/tmp").Windows())
	assert.False(t, HostPathStyle("darwin", "/var/folders/x").Windows())
	assert.True(t, HostPathStyle("windows", `D:\Temp`).Windows())

	got := ParseReport(`ERROR(RSC-005): D:\Temp\content.xhtml(2,2): m`, testNames, HostPathStyle("windows", `D:\Temp`))
	require.Len(t, got, 1)
	assert.Equal(t, "OEBPS/content.xhtml", got[0].Path)
}

func TestNewNameIndex(t *testing.T) {
	idx := NewNameIndex([]string{
		"OEBPS/Text/ch1.xhtml",
		"OEBPS/Images/",
		`OEBPS\Styles\main.css`,
		"OEBPS/ch1.xhtml",
	})
	assert.Equal(t, "OEBPS/ch1.xhtml", idx.Resolve("ch1.xhtml"))
	assert.Equal(t, "OEBPS/Styles/main.css", idx.Resolve("main.css"))
	assert.Equal(t, UnknownPath, idx.Resolve("Images"))
	assert.Equal(t, UnknownPath, idx.Resolve(""))
}

func TestCountSeverities(t *testing.T) {
	diags := ParseReport(strings.Join([]string{
		"FATAL(RSC-016): content.opf(1,1): a",
		"ERROR(RSC-005): content.xhtml(2,2): b",
		"ERROR(RSC-005): content.xhtml(3,3): c",
		"WARNING(HTM-014): nav.xhtml: d",
		"INFO(CSS-007): nav.xhtml: e",
		"USAGE(ACC-009): nav.xhtml: f",
	}, "\n"), testNames, PosixPaths())

	c := CountSeverities(diags)
	assert.Equal(t, SeverityCounts{Fatal: 1, Error: 2, Warning: 1, Info: 1, Usage: 1, Total: 6}, c)
	assert.True(t, c.HasErrors())
}

func TestParseReport_NonPositiveCoordinatesAreAbsent(t *testing.T) {
	got := ParseReport("ERROR(RSC-005): content.xhtml(0,-2): Some message", testNames, PosixPaths())
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Line)
	assert.Zero(t, got[0].Column)
	assert.Equal(t, "content.xhtml ERROR(RSC-005): Some message", got[0].Display)

	_, err := got[0].Target()
	assert.ErrorIs(t, err, ErrUnknownLine)
}

func TestPathStyle_ForInput(t *testing.T) {
	assert.False(t, PosixPaths().ForInput(`D:\books\book.epub`).Windows())

	style := HostPathStyle("windows", `C:\Temp`).ForInput(`D:\books\book.epub`)
	got := ParseReport(`WARNING(HTM-014): D:\books\book.epub\OEBPS\nav.xhtml(3,1): see C:\Temp`, testNames, style)
	require.Len(t, got, 1)
	assert.Equal(t, "OEBPS/nav.xhtml", got[0].Path)
	assert.Equal(t, `see C:\Temp`, got[0].Message)
}
