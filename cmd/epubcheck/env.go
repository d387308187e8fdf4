package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/automaton-epub/internal/application"
	"github.com/bryanwahyu/automaton-epub/internal/application/updates"
	"github.com/bryanwahyu/automaton-epub/internal/config"
	"github.com/bryanwahyu/automaton-epub/internal/infra/release"
	"github.com/bryanwahyu/automaton-epub/internal/logging"
)

// env is what every subcommand needs.
type env struct {
	cfg   *config.Config
	log   zerolog.Logger
	color bool
}

func defaultConfigPath() string {
	if v := os.Getenv("EPUBCHECK_CONFIG"); v != "" {
		return v
	}
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "epubcheck", "config.yaml")
	}
	return "epubcheck.yaml"
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		// the report is the output; keep routine logging quiet
		level = "warn"
	}
	colorFlag, _ := cmd.Flags().GetString("color")
	color, err := colorEnabled(colorFlag, isTerminal(os.Stdout))
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:   cfg,
		log:   logging.New(os.Stderr, true, level),
		color: color,
	}, nil
}

func colorEnabled(mode string, tty bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return tty && os.Getenv("NO_COLOR") == "", nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
}

func (e *env) updater(interactive bool) *updates.Service {
	s := &updates.Service{
		Prefs:     e.cfg.EPUBCheck,
		Releases:  release.NewGitHub(),
		Installer: release.NewInstaller(),
		Clock:     application.SystemClock{},
		Log:       e.log.With().Str("component", "updates").Logger(),
	}
	if interactive {
		s.Confirm = confirm
	}
	return s
}

func confirm(latest string) bool {
	fmt.Fprintf(os.Stderr, "EPUBCheck %s is available. Install it now? [y/N] ", latest)
	var answer string
	fmt.Fscanln(os.Stdin, &answer)
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
}

// runUpdate reports the result on stderr and fails only when nothing is installed.
func (e *env) runUpdate(ctx context.Context, force bool) error {
	res, err := e.updater(isTerminal(os.Stdin)).Run(ctx, force)
	if res.Status == updates.StatusUpdated || res.Status == updates.StatusFailed || force {
		fmt.Fprintln(os.Stderr, res.Message)
	}
	return err
}
