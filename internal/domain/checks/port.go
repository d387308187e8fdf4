package checks

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, c *Check) error
	Get(ctx context.Context, tenant string, id CheckID) (*Check, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Check, error)
	Summary(ctx context.Context, tenant string, sinceDays int) (Summary, error)
	Diagnostics(ctx context.Context, tenant string, id CheckID) ([]Diagnostic, error)
}

// Summary aggregates checks over a time window.
type Summary struct {
	Checks  int `json:"total_checks"`
	Invalid int `json:"invalid"`
	Fatal   int `json:"fatal"`
	Error   int `json:"error"`
	Warning int `json:"warning"`
}

// Runner port (interface untuk eksekusi EPUBCheck)
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}

// PackageReader lists the members of an EPUB and prepares it for checking.
type PackageReader interface {
	Members(path string) ([]string, error)
	Prepare(path, workDir string) (string, error)
}
