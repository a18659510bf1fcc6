package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenFile is the durable home of the bearer token: a single file with
// 0600 permissions. It satisfies the api.TokenStore interface — the client
// reads it before every request and clears it on 401.
type TokenFile struct {
	mu   sync.RWMutex
	path string
}

// NewTokenFile creates a token store backed by the given file path.
func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

// Token returns the stored token, or "" when none exists.
func (t *TokenFile) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data, err := os.ReadFile(t.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetToken persists the token.
func (t *TokenFile) SetToken(token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(t.path, []byte(token), 0o600)
}

// Clear removes the token file. A missing file is not an error.
func (t *TokenFile) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := os.Remove(t.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
