package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Method identifies which rung of the credential chain produced the handle.
type Method string

const (
	MethodInlineConfig   Method = "inline_config"
	MethodServiceAccount Method = "service_account_file"
	MethodOAuthClient    Method = "oauth_client"
	MethodDefault        Method = "application_default"
)

// Config carries everything the credential chain consults. All fields
// mirror the environment surface: CREDENTIALS_CONFIG, SERVICE_ACCOUNT_PATH,
// CREDENTIALS_PATH and TOKEN_PATH (via Store).
type Config struct {
	// CredentialsConfig is base64-encoded credential JSON supplied inline.
	// The shape (service account vs OAuth client) is auto-detected.
	CredentialsConfig string
	// ServiceAccountPath points at a service-account key file. The rung is
	// skipped when the file does not exist.
	ServiceAccountPath string
	// CredentialsPath points at an OAuth client-secret file. The rung is
	// skipped when the file does not exist.
	CredentialsPath string

	Scopes []string
	// Store persists OAuth tokens across runs. Nil falls back to an
	// in-memory store, which forces consent on every start.
	Store TokenStore
	// Flow performs interactive authorization when the store has nothing
	// usable. Nil disables the interactive rung.
	Flow   AuthorizationFlow
	Logger *slog.Logger
}

// Credentials is the resolved authentication handle. It is built once at
// startup and injected into every API client; nothing re-resolves per call.
type Credentials struct {
	Method      Method
	TokenSource oauth2.TokenSource
}

// Resolve walks the credential chain and returns the first method that is
// both configured and working: inline config, service-account file, OAuth
// client file, then Application Default Credentials. A configured method
// that fails logs a warning and falls through; only exhaustion of the
// whole chain is an error.
func Resolve(ctx context.Context, cfg Config) (*Credentials, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Store == nil {
		cfg.Store = NewInMemoryTokenStore()
	}

	if cfg.CredentialsConfig != "" {
		creds, err := resolveInline(ctx, cfg)
		if err == nil {
			return creds, nil
		}
		cfg.Logger.Warn("inline credential config unusable, trying next method", "error", err)
	}

	if path := cfg.ServiceAccountPath; path != "" && fileExists(path) {
		creds, err := resolveServiceAccountFile(ctx, path, cfg.Scopes)
		if err == nil {
			return creds, nil
		}
		cfg.Logger.Warn("service account file unusable, trying next method", "path", path, "error", err)
	}

	if path := cfg.CredentialsPath; path != "" && fileExists(path) {
		creds, err := resolveOAuthClientFile(ctx, cfg, path)
		if err == nil {
			return creds, nil
		}
		cfg.Logger.Warn("OAuth client credentials unusable, trying next method", "path", path, "error", err)
	}

	creds, err := resolveDefault(ctx, cfg.Scopes)
	if err != nil {
		return nil, fmt.Errorf(
			"all authentication methods failed; set CREDENTIALS_CONFIG, SERVICE_ACCOUNT_PATH, or CREDENTIALS_PATH: %w", err)
	}
	return creds, nil
}

// resolveInline handles base64 credential JSON from the environment,
// detecting the service-account shape by its "type" field.
func resolveInline(ctx context.Context, cfg Config) (*Credentials, error) {
	data, err := base64.StdEncoding.DecodeString(cfg.CredentialsConfig)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 credential config: %w", err)
	}

	if isServiceAccountJSON(data) {
		creds, err := google.CredentialsFromJSON(ctx, data, cfg.Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parsing inline service-account JSON: %w", err)
		}
		return &Credentials{Method: MethodInlineConfig, TokenSource: creds.TokenSource}, nil
	}

	oauthCfg, err := google.ConfigFromJSON(data, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing inline OAuth client JSON: %w", err)
	}
	ts, err := tokenSourceForClient(ctx, cfg, oauthCfg)
	if err != nil {
		return nil, err
	}
	return &Credentials{Method: MethodInlineConfig, TokenSource: ts}, nil
}

func resolveServiceAccountFile(ctx context.Context, path string, scopes []string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service account key %s: %w", path, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing service account key %s: %w", path, err)
	}
	return &Credentials{Method: MethodServiceAccount, TokenSource: creds.TokenSource}, nil
}

func resolveOAuthClientFile(ctx context.Context, cfg Config, path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OAuth client secrets %s: %w", path, err)
	}
	oauthCfg, err := google.ConfigFromJSON(data, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing OAuth client secrets %s: %w", path, err)
	}
	ts, err := tokenSourceForClient(ctx, cfg, oauthCfg)
	if err != nil {
		return nil, err
	}
	return &Credentials{Method: MethodOAuthClient, TokenSource: ts}, nil
}

func resolveDefault(ctx context.Context, scopes []string) (*Credentials, error) {
	creds, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("application default credentials: %w", err)
	}
	return &Credentials{Method: MethodDefault, TokenSource: creds.TokenSource}, nil
}

// tokenSourceForClient turns an OAuth client config into a token source.
// A stored valid token is used silently; an expired one is refreshed
// silently and the refresh persisted; otherwise the interactive flow runs
// once and its token is persisted. Every later refresh writes back to the
// store through PersistingTokenSource.
func tokenSourceForClient(ctx context.Context, cfg Config, oauthCfg *oauth2.Config) (oauth2.TokenSource, error) {
	stored, err := cfg.Store.Load()
	if err != nil && !errors.Is(err, ErrNoToken) {
		cfg.Logger.Warn("stored token unreadable, starting interactive authorization", "error", err)
	}

	if stored != nil {
		ts := &PersistingTokenSource{
			Base:            oauthCfg.TokenSource(ctx, stored),
			Store:           cfg.Store,
			lastAccessToken: stored.AccessToken,
			refreshToken:    stored.RefreshToken,
		}
		// Probe now so a dead refresh token surfaces here, where the
		// interactive flow can still take over, not at the first tool call.
		tok, err := ts.Token()
		if err == nil {
			return oauth2.ReuseTokenSource(tok, ts), nil
		}
		cfg.Logger.Warn("stored token unusable, starting interactive authorization", "error", err)
	}

	if cfg.Flow == nil {
		return nil, errors.New("no usable stored token and no authorization flow configured")
	}
	tok, err := cfg.Flow.Authorize(ctx, oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("interactive authorization: %w", err)
	}
	if err := cfg.Store.Save(tok); err != nil {
		return nil, fmt.Errorf("persisting authorized token: %w", err)
	}

	ts := &PersistingTokenSource{
		Base:            oauthCfg.TokenSource(ctx, tok),
		Store:           cfg.Store,
		lastAccessToken: tok.AccessToken,
		refreshToken:    tok.RefreshToken,
	}
	return oauth2.ReuseTokenSource(tok, ts), nil
}

// isServiceAccountJSON detects the service-account shape by its type field.
func isServiceAccountJSON(data []byte) bool {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Type == "service_account"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
