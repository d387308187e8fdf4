package java

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

var rxArch = regexp.MustCompile(`sun.arch.data.model = (\d+)`)

// Runner runs EPUBCheck through a local JVM.
type Runner struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	// exec is swapped in tests
	exec func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewRunner() *Runner {
	return &Runner{
		entropy: ulid.Monotonic(rand.Reader, 0),
		exec:    exec.CommandContext,
	}
}

// Args builds the java command line for a request.
func Args(req domain.RunRequest) []string {
	java := req.JavaPath
	if java == "" {
		java = "java"
	}
	args := []string{java, "-Dfile.encoding=UTF8"}
	if req.Is32Bit {
		args = append(args, "-Xss1024k")
	}
	args = append(args, "-jar", req.JarPath)
	if req.Locale != "" {
		args = append(args, "--locale", req.Locale)
	}
	if req.Usage {
		args = append(args, "--usage")
	}
	return append(args, req.EPUBPath)
}

func (r *Runner) Run(ctx context.Context, req domain.RunRequest) (domain.RunResult, error) {
	if _, err := os.Stat(req.JarPath); err != nil {
		return domain.RunResult{}, fmt.Errorf("epubcheck jar: %w", err)
	}
	start := time.Now()

	args := Args(req)
	cmd := r.exec(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	hideWindow(cmd)

	// jalankan epubcheck
	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	exitCode := 0
	if err != nil {
		// ambil exit code
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitCode = ee.ExitCode()
		} else {
			return domain.RunResult{}, fmt.Errorf("run error: %v, output=%s", err, stderr.String())
		}
	}

	res := domain.RunResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ExitCode:   exitCode,
		DurationMS: duration,
	}

	if req.ReportDir != "" {
		path, err := r.writeReport(req.ReportDir, domain.ReportText(res, req.Usage))
		if err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
		res.LocalReportPath = path
	}
	return res, nil
}

func (r *Runner) writeReport(dir, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	r.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy)
	r.mu.Unlock()
	path := filepath.Join(dir, fmt.Sprintf("epubcheck-%s.txt", id))
	return path, os.WriteFile(path, []byte(text), 0o644)
}

// DetectArch reports the JVM data model ("32" or "64"). When the JVM does
// not say, "64" is assumed.
func (r *Runner) DetectArch(ctx context.Context, javaPath string) string {
	cmd := r.exec(ctx, javaPath, "-XshowSettings:properties", "-version")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	hideWindow(cmd)
	_ = cmd.Run()
	if m := rxArch.FindStringSubmatch(stderr.String()); m != nil {
		return m[1]
	}
	return "64"
}

// Is32Bit resolves the configured architecture, asking the JVM only when
// the preference is unset.
func (r *Runner) Is32Bit(ctx context.Context, pref *bool, javaPath string) bool {
	if pref != nil {
		return *pref
	}
	return r.DetectArch(ctx, javaPath) == "32"
}
