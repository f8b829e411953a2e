package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconidentify/tikgrab/internal/api"
	"github.com/iconidentify/tikgrab/internal/api/handler"
	"github.com/iconidentify/tikgrab/internal/config"
	"github.com/iconidentify/tikgrab/internal/downloader"
	"github.com/iconidentify/tikgrab/internal/repository"
	"github.com/iconidentify/tikgrab/internal/resolver"
	"github.com/iconidentify/tikgrab/internal/service"
	"github.com/iconidentify/tikgrab/internal/session"
	"github.com/iconidentify/tikgrab/internal/worker"
	"github.com/iconidentify/tikgrab/pkg/ffmpeg"
	"github.com/iconidentify/tikgrab/pkg/tikwm"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tikgrab %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting tikgrab",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure the download directory exists
	if err := os.MkdirAll(cfg.Storage.BasePath, 0755); err != nil {
		logger.Error("failed to create download directory", "error", err)
		os.Exit(1)
	}

	// Initialize dependencies
	history, err := repository.NewSQLiteHistory(cfg.Storage.HistoryPath, logger)
	if err != nil {
		logger.Error("failed to open download history", "error", err)
		os.Exit(1)
	}

	client := tikwm.NewClient(tikwm.Config{
		BaseURL:       cfg.Tikwm.BaseURL,
		UserAgent:     cfg.Tikwm.UserAgent,
		Timeout:       cfg.Tikwm.Timeout,
		FetchAttempts: cfg.Tikwm.FetchAttempts,
		FetchDelay:    cfg.Tikwm.FetchDelay,
	}, logger)

	dl := downloader.NewHTTPDownloader(downloader.Config{
		Timeout:               cfg.Download.Timeout,
		ResponseHeaderTimeout: cfg.Download.ResponseHeaderTimeout,
		UserAgent:             cfg.Download.UserAgent,
	})
	dl.SetLogger(logger)

	probe := ffmpeg.NewProbe()
	if !probe.IsAvailable() {
		logger.Warn("ffprobe not found, video dimensions will be omitted")
	}

	// Initialize services
	mediaSvc := service.NewMediaService(
		session.New(client, logger),
		resolver.New(resolver.Config{UserAgent: cfg.Tikwm.UserAgent}, logger),
		dl,
		probe,
		worker.NewPool(cfg.Worker.ImageWorkers, logger),
		history,
		client,
		service.Config{BaseDir: cfg.Storage.BasePath},
		logger,
	)
	jobSvc := service.NewJobService(mediaSvc, cfg.Worker.MaxJobs, logger)

	// Initialize handlers
	downloadHandler := handler.NewDownloadHandler(jobSvc, logger)
	searchHandler := handler.NewSearchHandler(mediaSvc, logger)
	healthHandler := handler.NewHealthHandler(cfg.Storage.BasePath)

	// Setup router
	router := api.NewRouter(downloadHandler, searchHandler, healthHandler, cfg.Server.APIKey)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := mediaSvc.Close(); err != nil {
		logger.Error("media service shutdown error", "error", err)
	}
	if err := history.Close(); err != nil {
		logger.Error("history shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
