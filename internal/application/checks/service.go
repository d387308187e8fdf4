package checks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/automaton-epub/internal/application"
	"github.com/bryanwahyu/automaton-epub/internal/config"
	"github.com/bryanwahyu/automaton-epub/internal/domain/checkerrors"
	domain "github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

// Service implements use-cases untuk Check
// Service is designed to be used concurrently; every run works on its own
// temp directory and its own parse pass.
type Service struct {
	Repo      domain.Repository
	Runner    domain.Runner
	Packages  domain.PackageReader
	Artifacts domain.ArtifactStore   // optional
	Errors    checkerrors.Repository // optional
	Clock     application.Clock
	Log       zerolog.Logger

	Prefs     config.EPUBCheck
	Is32Bit   bool
	PathStyle domain.PathStyle
	WorkDir   string
	Version   func(jarPath string) (string, error) // optional
}

//
// ==== USE CASES ====
//

// Command untuk menjalankan check
type CheckCommand struct {
	ID       string // optional, generated when empty
	TenantID string
	EPUBPath string // .epub file or unpacked directory
	Package  string // display name, defaults to the base of EPUBPath
	Locale   string // overrides Prefs.Locale
	Usage    bool   // ORed with Prefs.Usage
	Source   string
	Metadata any
}

type CheckResult struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	Counts      domain.SeverityCounts `json:"counts"`
	Diagnostics []domain.Diagnostic   `json:"diagnostics,omitempty"`
	Output      string                `json:"output,omitempty"`
	ArtifactURL string                `json:"artifact_url,omitempty"`
	DurationMS  int64                 `json:"duration_ms"`
}

// Check jalankan EPUBCheck → parse → upload report → simpan ke repo
func (s *Service) Check(ctx context.Context, cmd CheckCommand) (CheckResult, error) {
	c, err := s.begin(ctx, cmd)
	if err != nil {
		return CheckResult{ID: string(c.ID), Status: string(domain.StatusFailed)}, err
	}
	return s.execute(ctx, c, cmd)
}

// Enqueue saves the running row and validates in the background. done is
// called after the run finishes, successful or not.
func (s *Service) Enqueue(cmd CheckCommand, done func(CheckResult, error)) (domain.CheckID, error) {
	ctx := context.Background()
	c, err := s.begin(ctx, cmd)
	if err != nil {
		return c.ID, err
	}
	go func() {
		res, err := s.execute(ctx, c, cmd)
		if done != nil {
			done(res, err)
		}
	}()
	return c.ID, nil
}

func (s *Service) begin(ctx context.Context, cmd CheckCommand) (*domain.Check, error) {
	id := cmd.ID
	if id == "" {
		id = uuid.New().String()
	}
	name := cmd.Package
	if name == "" {
		name = filepath.Base(cmd.EPUBPath)
	}
	locale := cmd.Locale
	if locale == "" {
		locale = s.Prefs.Locale
	}

	// Create an initial check row so we always have an ID to reference
	c := &domain.Check{
		ID:          domain.CheckID(id),
		TenantID:    cmd.TenantID,
		TriggeredAt: s.Clock.Now(),
		Package:     name,
		Status:      domain.StatusRunning,
		Locale:      locale,
		Usage:       cmd.Usage || s.Prefs.Usage,
		Source:      cmd.Source,
		Metadata:    cmd.Metadata,
	}
	if err := s.Repo.Save(ctx, c); err != nil {
		return c, fmt.Errorf("save check: %w", err)
	}
	return c, nil
}

func (s *Service) execute(ctx context.Context, c *domain.Check, cmd CheckCommand) (CheckResult, error) {
	log := s.Log.With().Str("tenant", c.TenantID).Str("check_id", string(c.ID)).Logger()

	members, err := s.Packages.Members(cmd.EPUBPath)
	if err != nil {
		return s.fail(ctx, c, checkerrors.PhaseRun, fmt.Errorf("read package: %w", err))
	}
	names := domain.NewNameIndex(members)

	tmp, err := os.MkdirTemp(s.WorkDir, "epubcheck-")
	if err != nil {
		return s.fail(ctx, c, checkerrors.PhaseRun, err)
	}
	defer os.RemoveAll(tmp)

	epubPath, err := s.Packages.Prepare(cmd.EPUBPath, tmp)
	if err != nil {
		return s.fail(ctx, c, checkerrors.PhaseRun, fmt.Errorf("prepare package: %w", err))
	}

	reportDir := ""
	if s.Artifacts != nil {
		reportDir = tmp
	}
	// jalankan runner sekali, tanpa retry
	res, err := s.Runner.Run(ctx, domain.RunRequest{
		JavaPath:  s.Prefs.JavaPath,
		JarPath:   s.Prefs.JarPath(),
		EPUBPath:  epubPath,
		Locale:    c.Locale,
		Usage:     c.Usage,
		Is32Bit:   s.Is32Bit,
		ReportDir: reportDir,
	})
	if err != nil {
		return s.fail(ctx, c, checkerrors.PhaseRun, err)
	}
	c.ExitCode = res.ExitCode
	c.DurationMS = res.DurationMS
	c.EPUBCheckVersion = s.version()

	outcome, err := domain.ClassifyOutput(res.ExitCode, res.Stdout, res.Stderr)
	if err != nil {
		c.Output = strings.TrimSpace(res.Stdout + "\n" + res.Stderr)
		return s.fail(ctx, c, checkerrors.PhaseRun, err)
	}

	switch outcome {
	case domain.OutcomeFindings:
		report := domain.ReportText(res, c.Usage)
		c.Diagnostics = domain.ParseReport(report, names, s.PathStyle.ForInput(epubPath))
		c.Counts = domain.CountSeverities(c.Diagnostics)
		c.Output = report
		c.Status = statusFrom(res.ExitCode, c.Counts)
	default:
		c.Output = domain.CleanText(res.Stdout, c.EPUBCheckVersion)
		c.Status = domain.StatusValid
	}

	if s.Artifacts != nil && res.LocalReportPath != "" {
		// report upload is best effort; the parsed result is still stored
		url, err := s.upload(ctx, c, res.LocalReportPath)
		if err != nil {
			s.record(ctx, c, checkerrors.PhaseUpload, err)
			log.Warn().Err(err).Msg("report upload failed")
		} else {
			c.ArtifactURL = url
		}
		if len(c.Diagnostics) > 0 {
			if err := s.uploadDiagnostics(ctx, c, tmp); err != nil {
				s.record(ctx, c, checkerrors.PhaseUpload, err)
				log.Warn().Err(err).Msg("diagnostics upload failed")
			}
		}
	}

	if err := s.Repo.Save(ctx, c); err != nil {
		s.record(ctx, c, checkerrors.PhaseStore, err)
		return toResult(c), fmt.Errorf("save check: %w", err)
	}

	log.Info().Str("status", string(c.Status)).Int("diagnostics", c.Counts.Total).
		Int("exit_code", c.ExitCode).Int64("duration_ms", c.DurationMS).Msg("check finished")
	return toResult(c), nil
}

func (s *Service) fail(ctx context.Context, c *domain.Check, phase string, cause error) (CheckResult, error) {
	c.Status = domain.StatusFailed
	if c.Output == "" {
		c.Output = cause.Error()
	}
	s.record(ctx, c, phase, cause)
	if err := s.Repo.Save(ctx, c); err != nil {
		s.Log.Error().Err(err).Str("check_id", string(c.ID)).Msg("save failed check")
	}
	return toResult(c), cause
}

func (s *Service) record(ctx context.Context, c *domain.Check, phase string, cause error) {
	if s.Errors == nil {
		return
	}
	details, _ := json.Marshal(map[string]any{
		"exit_code":  c.ExitCode,
		"java_fatal": errors.Is(cause, domain.ErrJavaFatal),
	})
	e := &checkerrors.CheckError{
		TenantID:    c.TenantID,
		CheckID:     string(c.ID),
		Package:     c.Package,
		Phase:       phase,
		Message:     cause.Error(),
		DetailsJSON: string(details),
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.Errors.Save(ctx, e); err != nil {
		s.Log.Error().Err(err).Str("check_id", string(c.ID)).Msg("save check error")
	}
}

func (s *Service) upload(ctx context.Context, c *domain.Check, path string) (string, error) {
	key := fmt.Sprintf("%s/checks/%s/%s", tenantKey(c.TenantID), c.ID, filepath.Base(path))
	return s.Artifacts.UploadAndCleanup(ctx, path, key)
}

func (s *Service) uploadDiagnostics(ctx context.Context, c *domain.Check, dir string) error {
	b, err := json.Marshal(c.Diagnostics)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "diagnostics.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	_, err = s.upload(ctx, c, path)
	return err
}

func (s *Service) version() string {
	if s.Version == nil {
		return ""
	}
	v, err := s.Version(s.Prefs.JarPath())
	if err != nil {
		s.Log.Debug().Err(err).Msg("read epubcheck version")
	}
	return v
}

// Latest ambil N check terakhir
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Check, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// Get ambil 1 check by id, lengkap dengan diagnostics
func (s *Service) Get(ctx context.Context, tenant string, id domain.CheckID) (*domain.Check, error) {
	c, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	diags, err := s.Repo.Diagnostics(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	c.Diagnostics = diags
	return c, nil
}

// Diagnostics ambil hasil parse untuk 1 check
func (s *Service) Diagnostics(ctx context.Context, tenant string, id domain.CheckID) ([]domain.Diagnostic, error) {
	return s.Repo.Diagnostics(ctx, tenant, id)
}

// Summary rekap hasil check N hari terakhir
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (domain.Summary, error) {
	return s.Repo.Summary(ctx, tenant, sinceDays)
}

// helper
func statusFrom(code int, counts domain.SeverityCounts) domain.Status {
	if code == 0 && !counts.HasErrors() {
		return domain.StatusValid
	}
	return domain.StatusInvalid
}

func tenantKey(t string) string {
	if strings.TrimSpace(t) == "" {
		return "local"
	}
	return t
}

func toResult(c *domain.Check) CheckResult {
	return CheckResult{
		ID:          string(c.ID),
		Status:      string(c.Status),
		Counts:      c.Counts,
		Diagnostics: c.Diagnostics,
		Output:      c.Output,
		ArtifactURL: c.ArtifactURL,
		DurationMS:  c.DurationMS,
	}
}
