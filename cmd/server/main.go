package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yonaka15/mcp-google-sheets/internal/auth"
	"github.com/yonaka15/mcp-google-sheets/internal/config"
	"github.com/yonaka15/mcp-google-sheets/internal/middleware"
	"github.com/yonaka15/mcp-google-sheets/internal/registry"
	"github.com/yonaka15/mcp-google-sheets/internal/resources"
	"github.com/yonaka15/mcp-google-sheets/internal/services"
)

const serverVersion = "0.4.0"

func main() {
	// Structured logging to stderr (stdout is reserved for MCP stdio transport)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := run(ctx); err != nil {
		cancel()
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
	cancel()
}

func run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set log level from config
	switch cfg.LogLevel {
	case "debug":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	case "warn":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	case "error":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	}
	logger := slog.Default()

	// Resolve credentials once at startup; every tool call reuses the
	// resulting token source.
	creds, err := auth.Resolve(ctx, auth.Config{
		CredentialsConfig:  cfg.Auth.CredentialsConfig,
		ServiceAccountPath: cfg.Auth.ServiceAccountPath,
		CredentialsPath:    cfg.Auth.CredentialsPath,
		Scopes:             auth.Scopes(cfg.ReadOnly),
		Store:              auth.NewFileTokenStore(cfg.Auth.TokenPath),
		Flow:               &auth.LocalServerFlow{Logger: logger},
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}
	slog.Info("authenticated", "method", creds.Method, "readOnly", cfg.ReadOnly)

	// Build the Google API clients
	ctr, err := services.New(ctx, creds.TokenSource, cfg.FolderID)
	if err != nil {
		return fmt.Errorf("initializing Google API clients: %w", err)
	}

	// Load tier config
	tierMap, err := config.LoadTiers(cfg.TiersConfig)
	if err != nil {
		slog.Warn("could not load tier config — all tools will be registered unfiltered",
			"path", cfg.TiersConfig,
			"error", err,
		)
		tierMap = nil
	}

	// Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mcp-google-sheets",
		Version: serverVersion,
	}, nil)

	// Wire SDK middleware
	server.AddReceivingMiddleware(
		middleware.LoggingMiddleware(logger),
		middleware.AuthHintMiddleware(),
	)

	// Register tools and resources
	registry.RegisterAll(server, ctr, cfg, tierMap)
	resources.Register(server, ctr)

	slog.Info("starting Google Sheets MCP server",
		"version", serverVersion,
		"transport", cfg.Server.Transport,
		"tier", cfg.ToolTier,
		"readOnly", cfg.ReadOnly,
	)

	// Start server on selected transport
	switch cfg.Server.Transport {
	case "stdio":
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
			return fmt.Errorf("stdio server error: %w", err)
		}

	case "streamable-http":
		mcpHandler := mcp.NewStreamableHTTPHandler(
			func(r *http.Request) *mcp.Server { return server },
			nil,
		)

		mux := http.NewServeMux()
		mux.Handle("/mcp", mcpHandler)

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		httpServer := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			slog.Info("shutting down HTTP server")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
		}()

		slog.Info("listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return nil
}
