package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthorizationFlow obtains a fresh OAuth token interactively when the
// token store has nothing usable. Implementations must honor ctx
// cancellation; the resolver blocks on them during startup.
type AuthorizationFlow interface {
	Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// LocalServerFlow runs the installed-app consent flow against a loopback
// HTTP server: it publishes the consent URL, waits for Google to redirect
// back with an authorization code, and exchanges the code for a token.
type LocalServerFlow struct {
	Logger *slog.Logger
	// OpenURL receives the consent URL. Nil means the URL is only logged
	// and the user opens it by hand, which also covers headless hosts.
	OpenURL func(url string) error
}

// callbackResult carries the outcome of the OAuth redirect.
type callbackResult struct {
	code string
	err  error
}

// Authorize blocks until the user completes consent in a browser, the
// redirect reports an error, or ctx is cancelled.
func (f *LocalServerFlow) Authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("starting OAuth callback listener: %w", err)
	}

	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}

	// Copy the config so the ephemeral redirect URL never leaks to callers.
	flowCfg := *cfg
	flowCfg.RedirectURL = fmt.Sprintf("http://%s/oauth/callback", ln.Addr().String())

	got := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		result := parseCallback(r, state)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if result.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, errorPage, result.err)
		} else {
			fmt.Fprint(w, successPage)
		}
		select {
		case got <- result:
		default:
		}
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := flowCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logger.Info("authorization required, open this URL in a browser", "url", authURL)
	if f.OpenURL != nil {
		if err := f.OpenURL(authURL); err != nil {
			logger.Warn("could not open browser, open the URL manually", "error", err)
		}
	}

	select {
	case result := <-got:
		if result.err != nil {
			return nil, result.err
		}
		token, err := flowCfg.Exchange(ctx, result.code)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code: %w", err)
		}
		return token, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for OAuth callback: %w", ctx.Err())
	}
}

// parseCallback validates the redirect request and extracts the code.
func parseCallback(r *http.Request, wantState string) callbackResult {
	q := r.URL.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		return callbackResult{err: fmt.Errorf("authorization refused: %s", errMsg)}
	}
	if q.Get("state") != wantState {
		return callbackResult{err: errors.New("state mismatch in OAuth callback")}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: errors.New("no authorization code in OAuth callback")}
	}
	return callbackResult{code: code}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

const successPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Authentication Successful</title>
<style>body{font-family:system-ui,sans-serif;display:flex;min-height:100vh;align-items:center;justify-content:center;background:#1a1a1a;color:#e0e0e0}.card{background:#2d2d2d;border:1px solid #444;border-radius:12px;padding:40px;text-align:center}h1{color:#4caf50;font-size:20px}</style>
</head>
<body><div class="card"><h1>Authentication successful</h1>
<p>Google Sheets access is connected. You can close this window.</p></div></body>
</html>`

const errorPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Authentication Failed</title>
<style>body{font-family:system-ui,sans-serif;display:flex;min-height:100vh;align-items:center;justify-content:center;background:#1a1a1a;color:#e0e0e0}.card{background:#2d2d2d;border:1px solid #444;border-radius:12px;padding:40px;text-align:center}h1{color:#ff6b6b;font-size:20px}</style>
</head>
<body><div class="card"><h1>Authentication failed</h1>
<p>%v</p><p>Return to the terminal and try again.</p></div></body>
</html>`
