package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpadapter "cv-builder/internal/adapter/http"
	repo "cv-builder/internal/adapter/repository"
	"cv-builder/internal/config"
	"cv-builder/internal/cvtemplate"
	"cv-builder/internal/infrastructure/migration"
	"cv-builder/internal/usecase"
	"cv-builder/pkg/logging"
	infra "cv-builder/pkg/infrastructure"

	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg, err := config.Load(os.Getenv("CV_BUILDER_CONFIG"))
	if err != nil {
		logging.New(os.Stderr, logging.ParseLevel("info")).Fatal("config", "err", err)
	}
	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// infra setup
	exportsPool, err := infra.NewExportsPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Warn("exports DB not available", "err", err)
	}
	if exportsPool != nil {
		defer exportsPool.Close()
		if err := migration.RunMigrations(ctx, exportsPool, logger); err != nil {
			logger.Fatal("migrations failed", "err", err)
		}
	}

	var cache infra.Cache = infra.NewNullCache()
	if cfg.Redis.URL != "" {
		rc, err := infra.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			logger.Warn("pdf cache not available", "err", err)
		} else {
			cache = rc
		}
	}
	defer cache.Close()

	renderer := infra.NewCachedRenderer(infra.NewChromedpRenderer(infra.ChromedpOptions{
		ExecPath: cfg.Renderer.ChromePath,
		Timeout:  cfg.Renderer.Timeout,
		TempDir:  cfg.Renderer.TempDir,
	}), cache, cfg.Redis.TTL, logger)

	files, err := infra.NewLocalFileStore(cfg.Storage.OutputDir)
	if err != nil {
		logger.Fatal("file store", "err", err)
	}
	exportsRepo := repo.NewExportsRepo(exportsPool)
	exporter := usecase.NewExporter(
		renderer,
		files,
		infra.NewDownloadSharer(strings.TrimRight(cfg.Server.BaseURL, "/")+"/files"),
		exportsRepo,
		logger,
		usecase.ExporterOptions{SaveHTML: cfg.Storage.SaveHTML},
	)

	sessions := usecase.NewSessionManager(sessionConfig(cfg), exporter, nil, cfg.Server.SessionTTL, logger)
	if cfg.Server.SweepInterval > 0 {
		go sessions.Run(ctx, cfg.Server.SweepInterval)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          httpadapter.NewErrorHandler(logger),
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: cfg.IsProduction(),
	})

	h := httpadapter.NewHandler(sessions, usecase.NewPDFTools(logger), httpadapter.Options{
		FileDir: files.Dir(),
		Exports: exportsRepo,
		Logger:  logger,
	})
	h.Register(app)

	go func() {
		logger.Info("listening", "port", cfg.Server.Port, "env", cfg.Server.Env, "exports_db", exportsRepo.Enabled())
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

func sessionConfig(cfg *config.Config) usecase.SessionConfig {
	return usecase.SessionConfig{
		ProgressInterval: cfg.Export.ProgressInterval,
		ProgressStep:     cfg.Export.ProgressStep,
		ProgressCeiling:  cfg.Export.ProgressCeiling,
		StartDelay:       cfg.Export.StartDelay,
		ModalCloseDelay:  cfg.Export.ModalCloseDelay,
		BannerTTL:        cfg.Export.BannerTTL,
		Options: cvtemplate.Options{
			Direction: cvtemplate.Direction(cfg.Export.Direction),
			Lang:      cfg.Export.Lang,
		},
	}
}
