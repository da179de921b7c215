package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmadqo/course-certificates/internal/cache"
	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/ahmadqo/course-certificates/internal/database"
	"github.com/ahmadqo/course-certificates/internal/handler"
	"github.com/ahmadqo/course-certificates/internal/jobs"
	"github.com/ahmadqo/course-certificates/internal/logger"
	"github.com/ahmadqo/course-certificates/internal/render"
	"github.com/ahmadqo/course-certificates/internal/repository"
	"github.com/ahmadqo/course-certificates/internal/service"
	"github.com/ahmadqo/course-certificates/internal/utils"
)

// @title           Course Certificates API
// @version         1.0
// @description     Certificate issuance, verification and rendering for the course platform.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Database ─────────────────────────────────────
	db, err := database.Connect(ctx, &cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := database.RunMigrations(ctx, db, migrationsPath, log); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// ── Storage (MinIO) ──────────────────────────────
	storage, err := utils.NewStorageService(&cfg.MinIO)
	if err != nil {
		return fmt.Errorf("connect minio: %w", err)
	}
	log.Info("minio connected", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.Bucket)

	// ── Repositories ─────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)

	seeder := database.NewSeeder(db, templateRepo, log)
	if err := seeder.SeedAdminUser(ctx); err != nil {
		log.Warn("seed admin failed", "error", err)
	}
	if err := seeder.SeedDefaultTemplates(ctx, storage); err != nil {
		log.Warn("seed templates failed", "error", err)
	}

	// ── Render cache ─────────────────────────────────
	var renderCache cache.RenderCache = cache.Nop{}
	if cfg.Redis.MemoryMB > 0 {
		renderCache = cache.NewMemoryCache(int64(cfg.Redis.MemoryMB)<<20, time.Duration(cfg.Redis.TTLMinutes)*time.Minute)
	}
	redisCache, err := cache.NewRedisCache(ctx, cfg.Redis, log)
	switch {
	case err != nil:
		log.Warn("redis unavailable, using in-process render cache", "error", err)
	case redisCache != nil:
		renderCache = redisCache
		defer redisCache.Close()
	}

	// ── Renderer ─────────────────────────────────────
	fonts, err := render.NewFontRegistry(cfg.Certificate.FontDir, log)
	if err != nil {
		return fmt.Errorf("load fonts: %w", err)
	}
	compositor := render.NewCompositor(
		render.StoreLoader{Store: storage},
		fonts,
		render.NewModuleEncoder(),
		render.Options{
			VerificationBaseURL: cfg.Certificate.PublicAppURL,
			TextBaseline:        render.ParseTextBaseline(cfg.Certificate.TextBaseline),
		},
		log,
	)

	// ── Services ─────────────────────────────────────
	resolver := service.NewTemplateResolver(templateRepo, cfg.Certificate.StrictFields)
	authService := service.NewAuthService(userRepo, cfg.JWT, log)
	templateService := service.NewTemplateService(templateRepo, resolver, compositor, storage, log)
	certificateService := service.NewCertificateService(certificateRepo, enrollmentRepo, resolver, cfg.Certificate, log)
	renderService := service.NewRenderService(certificateRepo, enrollmentRepo, resolver, compositor,
		renderCache, cfg.Certificate.InstructorFallback, log)

	// ── Batch job ────────────────────────────────────
	batch := jobs.NewBatchCertificates(enrollmentRepo, certificateService, renderService,
		storage, certificateRepo, cfg.Batch.Size, log)
	scheduler, err := jobs.Schedule(ctx, cfg.Batch, batch, log)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	// ── Handlers & router ────────────────────────────
	router := handler.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewTemplateHandler(templateService),
		handler.NewCertificateHandler(certificateService, renderService),
		cfg.JWT.Secret,
		cfg.App.AllowedOrigins,
		handler.RenderLimits{
			Concurrent: cfg.Certificate.RenderConcurrency,
			Backlog:    cfg.Certificate.RenderBacklog,
			Timeout:    30 * time.Second,
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.App.Port),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // render PDF 2000px bisa lama
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
