package updates

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/automaton-epub/internal/application"
	"github.com/bryanwahyu/automaton-epub/internal/config"
	"github.com/bryanwahyu/automaton-epub/internal/infra/release"
)

// ErrJarMissing means no usable EPUBCheck install exists after the update step.
var ErrJarMissing = errors.New("EPUBCheck Java files missing, re-run while connected to the Internet")

// Status of one update pass.
type Status string

const (
	StatusSkipped    Status = "skipped"
	StatusNoInternet Status = "no_internet"
	StatusUpToDate   Status = "up_to_date"
	StatusUpdated    Status = "updated"
	StatusDeclined   Status = "declined"
	StatusFailed     Status = "failed"
)

// Result is what the caller shows in its status line.
type Result struct {
	Status  Status
	Message string
	Current string
	Latest  string
}

// Releases returns the newest published EPUBCheck release.
type Releases interface {
	Latest(ctx context.Context) (release.Latest, error)
}

// Installer replaces the local install from a release download.
type Installer interface {
	Install(ctx context.Context, url, dir string) error
}

// Service keeps the local EPUBCheck install current.
type Service struct {
	Prefs     config.EPUBCheck
	Releases  Releases
	Installer Installer
	Clock     application.Clock
	Log       zerolog.Logger

	// Online and Version default to release.Online and release.JarVersion.
	Online  func(ctx context.Context) bool
	Version func(jarPath string) (string, error)
	// Confirm asks before installing; nil installs without asking.
	Confirm func(latest string) bool
}

// Missing reports whether epubcheck.jar or its lib folder is absent.
func (s *Service) Missing() bool {
	jar, err := os.Stat(s.Prefs.JarPath())
	if err != nil || jar.IsDir() {
		return true
	}
	lib, err := os.Stat(s.Prefs.LibDir())
	return err != nil || !lib.IsDir()
}

// Excluded reports whether a download is a prerelease that should not be
// offered. Any release is accepted when nothing is installed yet.
func Excluded(downloadURL string, missing bool) bool {
	if missing {
		return false
	}
	u := strings.ToLower(downloadURL)
	return strings.Contains(u, "alpha") || strings.Contains(u, "beta")
}

// Run performs the update check when it is enabled and due. force skips the
// interval. It returns ErrJarMissing when there is still nothing to run.
func (s *Service) Run(ctx context.Context, force bool) (Result, error) {
	res := s.run(ctx, force)
	s.Log.Info().Str("status", string(res.Status)).Str("current", res.Current).
		Str("latest", res.Latest).Msg(res.Message)
	if s.Missing() {
		return res, ErrJarMissing
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, force bool) Result {
	missing := s.Missing()
	if !s.Prefs.GitHub && !missing && !force {
		return Result{Status: StatusSkipped, Message: "Update check disabled."}
	}
	if !s.online(ctx) {
		return Result{Status: StatusNoInternet, Message: "Update check skipped: no Internet."}
	}

	statePath := s.Prefs.StatePath()
	st, err := config.LoadState(statePath)
	if err != nil {
		s.Log.Warn().Err(err).Str("path", statePath).Msg("state load failed")
	}
	now := s.Clock.Now()
	interval := time.Duration(s.Prefs.CheckIntervalDays) * 24 * time.Hour
	if !force && !missing && !st.LastTimeChecked.IsZero() && now.Sub(st.LastTimeChecked) < interval {
		return Result{Status: StatusSkipped, Message: "Update check not due yet."}
	}
	if err := config.SaveState(statePath, config.State{LastTimeChecked: now}); err != nil {
		s.Log.Warn().Err(err).Str("path", statePath).Msg("state save failed")
	}

	current, err := s.version(s.Prefs.JarPath())
	if err != nil {
		s.Log.Warn().Err(err).Msg("read installed version")
	}
	latest, err := s.Releases.Latest(ctx)
	if err != nil {
		return Result{Status: StatusFailed, Current: current, Message: "Internal error: update check failed."}
	}
	url := latest.DownloadURL
	if Excluded(url, missing) {
		url = ""
	}
	res := Result{Current: current, Latest: latest.Tag}

	if latest.Tag != current && latest.Tag != "" && url != "" {
		if s.Confirm != nil && !s.Confirm(latest.Tag) {
			res.Status = StatusDeclined
			res.Message = fmt.Sprintf("EPUBCheck %s is available.", latest.Tag)
			return res
		}
		if err := s.Installer.Install(ctx, url, s.Prefs.Dir); err != nil {
			res.Status = StatusFailed
			res.Message = fmt.Sprintf("EPUBCheck update failed: %v", err)
			return res
		}
		res.Status = StatusUpdated
		res.Message = fmt.Sprintf("EPUBCheck updated to EPUBCheck %s", latest.Tag)
		return res
	}

	switch {
	case latest.Tag != "":
		res.Status = StatusUpToDate
		res.Message = "No new EPUBCheck version found."
	case current == "":
		res.Status = StatusFailed
		res.Message = "Current EPUBCheck version not found."
	default:
		res.Status = StatusFailed
		res.Message = "Internal error: update check failed."
	}
	return res
}

func (s *Service) online(ctx context.Context) bool {
	if s.Online != nil {
		return s.Online(ctx)
	}
	return release.Online(ctx, "")
}

func (s *Service) version(jar string) (string, error) {
	if s.Version != nil {
		return s.Version(jar)
	}
	return release.JarVersion(jar)
}
