package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"crewdesk/internal/domain/auth"
	"crewdesk/internal/domain/mission"
	"crewdesk/internal/domain/notifications"
	"crewdesk/internal/domain/salary"
	"crewdesk/internal/domain/staffing"
	"crewdesk/internal/platform/config"
	"crewdesk/internal/platform/crypto"
	"crewdesk/internal/platform/db"
	"crewdesk/internal/platform/email"
	"crewdesk/internal/platform/jobs"
	"crewdesk/internal/platform/metrics"
	"crewdesk/internal/platform/querier"
	authhandler "crewdesk/internal/transport/http/handlers/auth"
	calendarhandler "crewdesk/internal/transport/http/handlers/calendar"
	missionhandler "crewdesk/internal/transport/http/handlers/mission"
	salaryhandler "crewdesk/internal/transport/http/handlers/salary"
	staffinghandler "crewdesk/internal/transport/http/handlers/staffing"
	"crewdesk/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

// NewLogger builds the process-wide JSON logger at the configured level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// New connects to the database, prepares it and wires every handler.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("data encryption key: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}

	defaults := cfg.SalaryDefaults.Settings()
	authStore := auth.NewStore(pool)
	salaryStore := salary.NewStore(pool, querier.NewTxManager(pool))
	if cfg.RunSeed {
		if err := db.Seed(ctx, authStore, salaryStore, cfg.SeedAdminEmail, cfg.SeedAdminPassword, defaults); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}

	collector := metrics.New()
	staffingSvc := staffing.NewService(staffing.NewStore(pool))
	staffingSvc.Notifier = notifications.New(email.New(cfg), cfg.EmailFrom, staffingSvc, loc)
	salarySvc := salary.NewService(salaryStore, loc, defaults)
	missionSvc := mission.NewService(mission.NewStore(pool), staffingSvc, mission.NewSQLCalculator(pool), cfg.RemotePriceTimeout)
	authSvc := auth.NewService(authStore, cfg.JWTSecret, cfg.TokenTTL)

	jobSvc := jobs.New(jobs.NewStore(pool), loc)
	jobSvc.Observe = collector.JobRun
	backup := &jobs.Backup{Exporter: salarySvc, Sealer: sealer, Dir: cfg.BackupDir}
	if cfg.BackupCron != "" {
		if err := jobSvc.Schedule(cfg.BackupCron, jobs.JobSalaryBackup, backup.Run); err != nil {
			pool.Close()
			return nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", collector.Handler())
	}

	staffingH := staffinghandler.NewHandler(staffingSvc, loc)
	missionH := missionhandler.NewHandler(missionSvc, collector)

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc, staffingSvc).RegisterRoutes(r)

		staffingH.RegisterRoutes(r)
		r.Route("/events", func(r chi.Router) {
			staffingH.RegisterEventRoutes(r)
			missionH.RegisterEventRoutes(r)
		})

		calendarhandler.NewHandler(staffingSvc, loc, cfg.MaxUploadBytes, collector).RegisterRoutes(r)

		salaryH := salaryhandler.NewHandler(salarySvc, staffingSvc, middleware.NewIdempotencyStore(pool), collector, sealer, cfg.SlipDir)
		if cfg.BackupDir != "" {
			salaryH.RunBackup = func(ctx context.Context) (any, error) {
				return jobSvc.RunNow(ctx, jobs.JobSalaryBackup, backup.Run)
			}
		}
		salaryH.RegisterRoutes(r)
	})

	if cfg.FrontendDir != "" {
		router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	}

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobSvc, Metrics: collector}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)
	defer a.Jobs.Stop()

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("crewdesk server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
