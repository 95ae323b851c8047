package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all server configuration loaded from environment variables and CLI flags.
type Config struct {
	Auth struct {
		// CredentialsConfig is base64-encoded credential JSON supplied inline.
		CredentialsConfig string
		// ServiceAccountPath points at a service-account key file.
		ServiceAccountPath string
		// CredentialsPath points at an OAuth client-secret file.
		CredentialsPath string
		// TokenPath is where OAuth tokens persist between runs.
		TokenPath string
	}
	Server struct {
		Transport string
		Host      string
		Port      int
	}
	// FolderID scopes spreadsheet listing and creation to one Drive folder.
	FolderID    string
	ToolTier    string
	ReadOnly    bool
	LogLevel    string
	TiersConfig string
}

// Load reads configuration from environment variables and CLI flags.
// CLI flags take precedence over environment variables.
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	// Environment variables
	cfg.Auth.CredentialsConfig = os.Getenv("CREDENTIALS_CONFIG")
	cfg.Auth.ServiceAccountPath = envOrDefault("SERVICE_ACCOUNT_PATH", "service_account.json")
	cfg.Auth.CredentialsPath = envOrDefault("CREDENTIALS_PATH", "credentials.json")
	cfg.Auth.TokenPath = envOrDefault("TOKEN_PATH", "token.json")
	cfg.FolderID = os.Getenv("DRIVE_FOLDER_ID")

	cfg.Server.Transport = envOrDefault("MCP_TRANSPORT", "stdio")
	cfg.Server.Host = envOrDefault("HOST", "0.0.0.0")
	cfg.LogLevel = envOrDefault("LOG_LEVEL", "info")
	cfg.ToolTier = envOrDefault("TOOL_TIER", "complete")
	cfg.ReadOnly = envBool("READ_ONLY")
	cfg.TiersConfig = envOrDefault("TOOL_TIERS_CONFIG", "configs/tool_tiers.yaml")

	portStr := envOrDefault("PORT", "8000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	cfg.Server.Port = port

	// CLI flags override env vars
	fs := flag.NewFlagSet("mcp-google-sheets", flag.ContinueOnError)
	fs.StringVar(&cfg.Server.Transport, "transport", cfg.Server.Transport, "Transport mode: stdio or streamable-http")
	fs.StringVar(&cfg.ToolTier, "tool-tier", cfg.ToolTier, "Load tools by tier: core, extended, or complete")
	fs.BoolVar(&cfg.ReadOnly, "read-only", cfg.ReadOnly, "Request only read-only scopes and register only read tools")
	fs.StringVar(&cfg.TiersConfig, "tiers-config", cfg.TiersConfig, "Path to the tool tiers YAML file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch cfg.Server.Transport {
	case "stdio", "streamable-http":
	default:
		return nil, fmt.Errorf("invalid transport %q: expected stdio or streamable-http", cfg.Server.Transport)
	}
	if TierLevel(cfg.ToolTier) == 0 {
		return nil, fmt.Errorf("invalid tool tier %q: expected core, extended, or complete", cfg.ToolTier)
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}
