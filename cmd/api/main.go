package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/bryanwahyu/automaton-epub/internal/application"
	appadvice "github.com/bryanwahyu/automaton-epub/internal/application/advice"
	appchecks "github.com/bryanwahyu/automaton-epub/internal/application/checks"
	"github.com/bryanwahyu/automaton-epub/internal/application/updates"
	"github.com/bryanwahyu/automaton-epub/internal/config"
	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
	"github.com/bryanwahyu/automaton-epub/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/automaton-epub/internal/infra/db/mysql"
	"github.com/bryanwahyu/automaton-epub/internal/infra/db/postgres"
	"github.com/bryanwahyu/automaton-epub/internal/infra/db/sqlite"
	"github.com/bryanwahyu/automaton-epub/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/automaton-epub/internal/infra/epub"
	javarunner "github.com/bryanwahyu/automaton-epub/internal/infra/executor/java"
	"github.com/bryanwahyu/automaton-epub/internal/infra/httpserver"
	"github.com/bryanwahyu/automaton-epub/internal/infra/release"
	minioStore "github.com/bryanwahyu/automaton-epub/internal/infra/storage"
	"github.com/bryanwahyu/automaton-epub/internal/logging"
	"github.com/bryanwahyu/automaton-epub/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, false, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, repos, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database connect error")
	}
	defer db.Close()

	// pastikan epubcheck terpasang sebelum menerima request
	upd := &updates.Service{
		Prefs:     cfg.EPUBCheck,
		Releases:  release.NewGitHub(),
		Installer: release.NewInstaller(),
		Clock:     application.SystemClock{},
		Log:       log.With().Str("component", "updates").Logger(),
	}
	if _, err := upd.Run(ctx, false); err != nil {
		log.Fatal().Err(err).Msg("epubcheck install")
	}

	runner := javarunner.NewRunner()
	svc := &appchecks.Service{
		Repo:      repos.Checks,
		Errors:    repos.Errors,
		Runner:    runner,
		Packages:  epub.NewReader(),
		Clock:     application.SystemClock{},
		Log:       log.With().Str("component", "checks").Logger(),
		Prefs:     cfg.EPUBCheck,
		Is32Bit:   runner.Is32Bit(ctx, cfg.EPUBCheck.Is32Bit, cfg.EPUBCheck.JavaPath),
		PathStyle: checks.HostPathStyle(runtime.GOOS, os.TempDir()),
		WorkDir:   cfg.Server.UploadDir,
		Version:   release.JarVersion,
	}

	// minio optional; tanpa endpoint report tidak di-upload
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx, log,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("minio init error")
		}
		store.PresignTTL = time.Duration(cfg.Minio.PresignMinutes) * time.Minute
		svc.Artifacts = store
	}

	aiClient := openai.NewClientWithBaseURL(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	adviceSvc := appadvice.NewService(aiClient, repos.Advice, svc, application.SystemClock{})

	handler := httpserver.NewRouter(svc, adviceSvc, httpserver.Options{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.Server.CORSOrigins,
		MaxUploadMB: cfg.Limits.MaxUploadMB,
		UploadDir:   cfg.Server.UploadDir,
		Limiter:     middleware.NewRunLimiter(cfg.Limits.MaxConcurrent),
		Health: map[string]middleware.HealthChecker{
			"database":  &middleware.DatabaseHealthChecker{DB: db},
			"epubcheck": &middleware.InstallHealthChecker{Prefs: cfg.EPUBCheck},
		},
		Log: log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second, // uploads
		WriteTimeout: 5 * time.Minute,  // ?wait=true runs the validator inline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("model", aiClient.ModelName()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, sqlstore.Repositories, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, sqlstore.Repositories{}, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, sqlstore.Repositories{}, err
		}
		return db, postgres.Repositories(db), nil
	case "sqlite":
		p := cfg.Database.Path
		if p == "" {
			p = cfg.EPUBCheck.HistoryPath()
		}
		db, err := sqlite.Open(ctx, p)
		if err != nil {
			return nil, sqlstore.Repositories{}, err
		}
		return db, sqlite.Repositories(db), nil
	case "mysql", "":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, sqlstore.Repositories{}, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, sqlstore.Repositories{}, err
		}
		return db, mysqlp.Repositories(db), nil
	}
	return nil, sqlstore.Repositories{}, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
