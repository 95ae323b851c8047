package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by Load when the store holds no token yet.
var ErrNoToken = errors.New("no stored token")

// TokenStore persists the OAuth token between runs. The server is
// single-identity, so the store holds exactly one token.
type TokenStore interface {
	Save(token *oauth2.Token) error
	Load() (*oauth2.Token, error)
}

// FileTokenStore stores the token as a JSON file with 0600 permissions.
// A silent refresh can rewrite the file at any time, so writes go through
// a temp file and rename; a concurrent reader never sees a partial token.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a token store backed by the given file path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Save atomically replaces the stored token.
func (s *FileTokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshaling token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("restricting token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp token file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing token file %s: %w", s.path, err)
	}
	return nil
}

// Load reads the stored token, or ErrNoToken when the file is absent.
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("reading token from %s: %w", s.path, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token file %s: %w", s.path, err)
	}
	return &token, nil
}

// InMemoryTokenStore keeps the token in memory only. Used in tests and
// when inline credentials arrive without any token path to write to.
type InMemoryTokenStore struct {
	mu    sync.Mutex
	token *oauth2.Token
}

// NewInMemoryTokenStore creates an empty in-memory token store.
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{}
}

// Save stores a copy of the token.
func (s *InMemoryTokenStore) Save(token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.token = &copied
	return nil
}

// Load returns the stored token, or ErrNoToken when none was saved.
func (s *InMemoryTokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return nil, ErrNoToken
	}
	copied := *s.token
	return &copied, nil
}

// PersistingTokenSource wraps an oauth2.TokenSource to persist refreshed
// tokens. It tracks the last known access token so it only writes when the
// token actually changes (i.e. on refresh), not on every Token() call.
type PersistingTokenSource struct {
	Base  oauth2.TokenSource
	Store TokenStore

	mu              sync.Mutex
	lastAccessToken string
	refreshToken    string
}

// Token returns a token, persisting it when the access token has changed.
func (p *PersistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.Base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := token.AccessToken != p.lastAccessToken
	if changed {
		p.lastAccessToken = token.AccessToken
		if token.RefreshToken != "" {
			p.refreshToken = token.RefreshToken
		}
	}
	refresh := p.refreshToken
	p.mu.Unlock()

	if changed {
		// Google omits the refresh token from refresh responses; carry the
		// last known one forward so the stored token stays renewable.
		persist := *token
		if persist.RefreshToken == "" {
			persist.RefreshToken = refresh
		}
		if err := p.Store.Save(&persist); err != nil {
			slog.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return token, nil
}
