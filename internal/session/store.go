// Package session keeps the auth token and hands it to every request.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const credFileName = "credentials.json"

// Token sources.
const (
	SourceEnv  = "env"
	SourceFile = "file"
)

// TokenInfo is what a Store keeps about the current token. ExpiresAt
// comes from the JWT exp claim and stays nil for opaque tokens.
type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Store persists a token. Load returns (nil, nil) when logged out.
type Store interface {
	Load() (*TokenInfo, error)
	Save(token string, expires *time.Time) error
	Clear() error
}

// ErrEmptyToken is returned by Save for a blank token.
var ErrEmptyToken = errors.New("empty token")

// normalize trims whitespace and a pasted "Bearer " prefix.
func normalize(token string) (string, error) {
	token = StripBearer(strings.TrimSpace(token))
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// FileStore keeps the token in <dir>/credentials.json, readable by the
// owner only. A non-empty EnvToken wins over the file and is never written.
type FileStore struct {
	Dir      string
	EnvToken string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir, envToken string) *FileStore {
	return &FileStore{Dir: dir, EnvToken: envToken}
}

func (s *FileStore) path() string { return filepath.Join(s.Dir, credFileName) }

func (s *FileStore) Load() (*TokenInfo, error) {
	if token, err := normalize(s.EnvToken); err == nil {
		return &TokenInfo{Token: token, Source: SourceEnv}, nil
	}
	return s.readFile()
}

func (s *FileStore) readFile() (*TokenInfo, error) {
	b, err := os.ReadFile(s.path())
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", credFileName, err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("decode %s: %w", credFileName, err)
	}
	token, err := normalize(ti.Token)
	if err != nil {
		return nil, nil
	}
	ti.Token, ti.Source = token, SourceFile
	return &ti, nil
}

// Save writes the credentials through a temporary file and a rename, so a
// crash never leaves a half-written token behind.
func (s *FileStore) Save(token string, expires *time.Time) error {
	token, err := normalize(token)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expires,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", credFileName, err)
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", s.Dir, err)
	}
	tmp, err := os.CreateTemp(s.Dir, credFileName+".*")
	if err != nil {
		return fmt.Errorf("save %s: %w", credFileName, err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", credFileName, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", credFileName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", credFileName, err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		return fmt.Errorf("save %s: %w", credFileName, err)
	}
	return nil
}

// Clear deletes the credentials file; a missing file is fine. An env token
// cannot be cleared here, so the gate stops trusting it for the rest of the
// process instead.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path())
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove %s: %w", credFileName, err)
}

// MemoryStore keeps the token in memory only.
type MemoryStore struct {
	mu sync.Mutex
	ti *TokenInfo
}

func (m *MemoryStore) Load() (*TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ti == nil {
		return nil, nil
	}
	cp := *m.ti
	return &cp, nil
}

func (m *MemoryStore) Save(token string, expires *time.Time) error {
	token, err := normalize(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ti = &TokenInfo{Token: token, Source: SourceFile, CreatedAt: time.Now(), ExpiresAt: expires}
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ti = nil
	return nil
}

// StripBearer drops a leading "Bearer " so pasted headers work as tokens.
func StripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
