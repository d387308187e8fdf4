package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/automaton-epub/internal/application"
	appchecks "github.com/bryanwahyu/automaton-epub/internal/application/checks"
	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
	"github.com/bryanwahyu/automaton-epub/internal/infra/db/sqlite"
	"github.com/bryanwahyu/automaton-epub/internal/infra/epub"
	javarunner "github.com/bryanwahyu/automaton-epub/internal/infra/executor/java"
	"github.com/bryanwahyu/automaton-epub/internal/infra/release"
	"github.com/bryanwahyu/automaton-epub/internal/report"
	"github.com/bryanwahyu/automaton-epub/internal/tui"
)

var checkCmd = &cobra.Command{
	Use:   "check <file.epub|dir>",
	Short: "Validate a package and list its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  checkExecution,
}

func init() {
	checkCmd.Flags().String("format", "text", "report format (text|json|markdown|html)")
	checkCmd.Flags().Bool("tui", false, "browse the messages interactively")
	checkCmd.Flags().String("locale", "", "EPUBCheck message language, e.g. de or pt-BR")
	checkCmd.Flags().Bool("usage", false, "include USAGE messages")
	checkCmd.Flags().Bool("no-update", false, "skip the EPUBCheck update check")
	checkCmd.Flags().Bool("history", true, "keep the result in the local history")
}

func checkExecution(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	input, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	useTUI, _ := cmd.Flags().GetBool("tui")
	locale, _ := cmd.Flags().GetString("locale")
	usage, _ := cmd.Flags().GetBool("usage")
	noUpdate, _ := cmd.Flags().GetBool("no-update")
	keep, _ := cmd.Flags().GetBool("history")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// update check and JVM probing do not depend on each other
	runner := javarunner.NewRunner()
	var is32 bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if noUpdate {
			return nil
		}
		return e.runUpdate(gctx, false)
	})
	g.Go(func() error {
		is32 = runner.Is32Bit(gctx, e.cfg.EPUBCheck.Is32Bit, e.cfg.EPUBCheck.JavaPath)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	dbPath := ":memory:"
	if keep {
		dbPath = e.cfg.EPUBCheck.HistoryPath()
	}
	db, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer db.Close()
	repos := sqlite.Repositories(db)

	svc := &appchecks.Service{
		Repo:      repos.Checks,
		Errors:    repos.Errors,
		Runner:    runner,
		Packages:  epub.NewReader(),
		Clock:     application.SystemClock{},
		Log:       e.log,
		Prefs:     e.cfg.EPUBCheck,
		Is32Bit:   is32,
		PathStyle: checks.HostPathStyle(runtime.GOOS, os.TempDir()),
		Version:   release.JarVersion,
	}
	res, runErr := svc.Check(ctx, appchecks.CheckCommand{
		EPUBPath: input,
		Locale:   locale,
		Usage:    usage,
		Source:   "cli",
	})
	if runErr != nil && res.ID == "" {
		return runErr
	}
	if runErr != nil {
		// no report to show; the validator's own output explains it
		fmt.Fprintln(os.Stderr, res.Output)
		if errors.Is(runErr, checks.ErrJavaFatal) {
			return errFindings
		}
		return runErr
	}

	c, err := svc.Get(ctx, "", checks.CheckID(res.ID))
	if err != nil {
		return err
	}

	if e.cfg.EPUBCheck.ClipboardCopy {
		if err := clipboard.WriteAll(c.Output); err != nil {
			e.log.Warn().Err(err).Msg("clipboard copy failed")
		}
	}

	if useTUI && isTerminal(os.Stdout) && len(c.Diagnostics) > 0 {
		if err := tui.Run(c, tuiOptions(e, input)); err != nil {
			return err
		}
	} else if err := report.Write(os.Stdout, format, c, report.Options{Color: e.color}); err != nil {
		return err
	}
	return exitStatus(c)
}

func tuiOptions(e *env, input string) tui.Options {
	opts := tui.Options{}
	// editor jumps only make sense for an unpacked folder
	if st, err := os.Stat(input); err == nil && st.IsDir() && e.cfg.EPUBCheck.Editor != "" {
		opts.Open = tui.EditorOpener(e.cfg.EPUBCheck.Editor, input)
	}
	if e.cfg.EPUBCheck.ClipboardCopy {
		opts.Copy = clipboard.WriteAll
	}
	return opts
}

// exitStatus is errFindings when the package has errors or fatal errors.
func exitStatus(c *checks.Check) error {
	if c.Status == checks.StatusFailed || c.Counts.HasErrors() {
		return errFindings
	}
	return nil
}
