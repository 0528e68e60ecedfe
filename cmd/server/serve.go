package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/analyzer"
	"github.com/BerylCAtieno/health-records-api/internal/config"
	"github.com/BerylCAtieno/health-records-api/internal/extractor"
	"github.com/BerylCAtieno/health-records-api/internal/llm"
	"github.com/BerylCAtieno/health-records-api/internal/router"
	"github.com/BerylCAtieno/health-records-api/internal/scheduler"
	"github.com/BerylCAtieno/health-records-api/internal/services"
	"github.com/BerylCAtieno/health-records-api/internal/storage"
	"github.com/BerylCAtieno/health-records-api/internal/utils"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServer(cfg, utils.NewLogger(cfg.LogLevel))
		},
	}
}

func runServer(cfg *config.Config, logger *utils.Logger) error {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init blob storage: %w", err)
	}

	completer := llm.New(llm.OpenRouterOptions{
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		BaseURL: cfg.OpenRouterBaseURL,
		Timeout: cfg.AITimeout,
	}, logger)

	textExtractor := extractor.New(
		extractor.NewTesseractOCR(cfg.OCRLanguage),
		extractor.NewPdftoppmRasterizer(cfg.PdftoppmPath),
		extractor.Options{OCRTimeout: cfg.OCRTimeout, MaxPDFPages: cfg.PDFOCRMaxPages},
		logger,
	)
	medicalAnalyzer := analyzer.NewMedicalAnalyzer(completer, logger)
	matcher := analyzer.NewSpecializationMatcher(completer, logger)

	reportService := services.NewReportService(store, blobs, textExtractor, medicalAnalyzer, cfg.MaxFileSize, logger)
	assignmentService := services.NewAssignmentService(store, matcher, cfg.ShareTTL, logger)

	handler := router.NewRouter(router.Services{
		Reports:     reportService,
		Assignments: assignmentService,
		Medications: services.NewMedicationService(store, logger),
		Health:      services.NewHealthService(store, medicalAnalyzer, logger),
	}, router.Options{
		JWTSecret:   []byte(cfg.JWTSecret),
		MaxFileSize: cfg.MaxFileSize,
	}, logger)

	sched := scheduler.New(assignmentService, logger)
	if err := sched.Start(cfg.ExpirySweepSchedule); err != nil {
		return err
	}
	defer sched.Stop()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "store", cfg.StoreDriver, "blob", cfg.BlobDriver, "ai", cfg.AIConfigured())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Let in-flight report pipelines reach a terminal state before the store closes.
	done := make(chan struct{})
	go func() {
		reportService.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("Timed out waiting for report pipelines")
	}

	logger.Info("Server exited")
	return nil
}
