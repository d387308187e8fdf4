package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/automaton-epub/internal/config"
)

// HealthChecker is one dependency the server needs to do its work.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// DatabaseHealthChecker pings the check store.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// InstallHealthChecker fails while epubcheck.jar or its lib folder is missing,
// e.g. before the first successful update.
type InstallHealthChecker struct {
	Prefs config.EPUBCheck
}

func (i *InstallHealthChecker) Check(context.Context) error {
	jar, err := os.Stat(i.Prefs.JarPath())
	if err != nil {
		return fmt.Errorf("epubcheck.jar: %w", err)
	}
	if jar.IsDir() {
		return fmt.Errorf("%s is a directory", i.Prefs.JarPath())
	}
	lib, err := os.Stat(i.Prefs.LibDir())
	if err != nil {
		return fmt.Errorf("epubcheck lib: %w", err)
	}
	if !lib.IsDir() {
		return fmt.Errorf("%s is not a directory", i.Prefs.LibDir())
	}
	return nil
}

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// runCheckers runs every checker concurrently; one failure does not stop the others.
func runCheckers(ctx context.Context, checkers map[string]HealthChecker) HealthStatus {
	health := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckStatus, len(checkers)),
	}
	var mu sync.Mutex
	var g errgroup.Group
	for name, checker := range checkers {
		g.Go(func() error {
			st := CheckStatus{Status: "healthy"}
			if err := checker.Check(ctx); err != nil {
				st = CheckStatus{Status: "unhealthy", Message: err.Error()}
			}
			mu.Lock()
			defer mu.Unlock()
			health.Checks[name] = st
			if st.Status != "healthy" {
				health.Status = "unhealthy"
			}
			return nil
		})
	}
	g.Wait()
	return health
}

// HealthHandler reports every checker with its message.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := runCheckers(ctx, checkers)
		statusCode := http.StatusOK
		if health.Status != "healthy" {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}

// ReadinessHandler only answers whether checks can be accepted right now.
func ReadinessHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status, code := "ready", http.StatusOK
		if runCheckers(ctx, checkers).Status != "healthy" {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    status,
			"timestamp": time.Now(),
		})
	}
}

func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
