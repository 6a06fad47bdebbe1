package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/aptviewer/internal/config"
	"github.com/JonMunkholm/aptviewer/internal/core"
	"github.com/JonMunkholm/aptviewer/internal/logging"
	"github.com/JonMunkholm/aptviewer/internal/sheet"
	"github.com/JonMunkholm/aptviewer/internal/web"
	"github.com/JonMunkholm/aptviewer/internal/xlsx"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(nil, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"refresh_interval", cfg.Source.RefreshInterval.String(),
		"export_enabled", cfg.Export.Enabled,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	registry := core.DefaultRegistry()
	if cfg.Table.ColumnsFile != "" {
		registry, err = core.LoadRegistry(cfg.Table.ColumnsFile)
		if err != nil {
			slog.Error("failed to load column registry", "error", err, "code", core.MapError(err).Code)
			os.Exit(1)
		}
		slog.Info("column registry loaded", "path", cfg.Table.ColumnsFile)
	}

	// A nil source keeps the service in the unconfigured state.
	var source core.Source
	if csvURL := sheet.BuildCSVURL(cfg.Source.CSVURL, cfg.Source.SheetID, cfg.Source.GID); csvURL != "" {
		source = sheet.NewHTTPSource(csvURL, cfg.Source.FetchTimeout, cfg.Source.MaxBytes)
	} else {
		slog.Warn("no data source configured", "code", core.MapError(core.ErrNotConfigured).Code)
	}

	var writer core.WorkbookWriter
	if cfg.Export.Enabled {
		writer = xlsx.NewWriter()
	}

	service := core.NewService(source, registry, writer, core.ServiceOptions{
		ColumnCount:   cfg.Table.ColumnCount,
		SheetName:     cfg.Export.SheetName,
		MaxExports:    cfg.Export.MaxConcurrent,
		ExportMaxWait: cfg.Export.MaxWait,
	})

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Initial load plus periodic refresh when configured
	go service.StartRefreshScheduler(jobCtx, cfg.Source.RefreshInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight downloads finish (with timeout)
		if n := service.ActiveExports(); n > 0 {
			slog.Info("waiting for exports to complete", "active", n)
			if err := service.WaitForExports(shutdownCtx); err != nil {
				slog.Warn("exports did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
