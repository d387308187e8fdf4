package checks

// RunRequest untuk Runner
type RunRequest struct {
	JavaPath  string
	JarPath   string
	EPUBPath  string
	Locale    string
	Usage     bool
	Is32Bit   bool
	ReportDir string
}

// RunResult hasil dari Runner
type RunResult struct {
	Stdout          string
	Stderr          string
	ExitCode        int
	DurationMS      int64
	LocalReportPath string
}
