package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"financas/internal/auth"
	"financas/internal/cache"
	"financas/internal/cli"
	"financas/internal/core"
	"financas/internal/export/google"
	apphttp "financas/internal/http"
	"financas/internal/middleware/ratelimit"
	"financas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backend := cli.InitBackend(context.Background(), logger, cfg)

	cacheManager := cache.NewManager()
	monthly := cache.NewLRUCache[core.MonthlySummary](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	annual := cache.NewLRUCache[core.AnnualReport](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	cacheManager.Register(monthly)
	cacheManager.Register(annual)
	cacheManager.StartCleanup(time.Minute)
	reports := services.NewReportService(backend.Store, monthly, annual)

	var sheets services.SheetWriter
	if cfg.SheetsEnabled() {
		creds, err := google.Credentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
		if err != nil {
			logger.Error("Failed to read Google credentials", "error", err)
			os.Exit(1)
		}
		writer, err := google.NewWriter(context.Background(), cfg.GoogleSpreadsheetID, creds)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets export", "error", err)
			os.Exit(1)
		}
		sheets = writer
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, auth.DefaultTokenTTL)
	deps := apphttp.NewDeps(backend.Store, backend.Publisher, tokens, reports, sheets)
	deps.RateLimit = ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		CleanupInterval:   5 * time.Minute,
		SkipSafeMethods:   true,
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting financas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", backend.Publisher != nil,
		"sheets_export", sheets != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
