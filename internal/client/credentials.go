package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RohitKattimani/MedReadApp/internal/models"
)

// ErrNoCredentials is returned by Load when no credential is stored.
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials is the locally cached bearer token plus the identity it was
// issued for. Populated on login, cleared on logout or any 401.
type Credentials struct {
	Token string       `json:"session_token"`
	User  *models.User `json:"user,omitempty"`
}

// CredentialStore owns the credential cache lifecycle. Reads happen on every
// request via the bearer interceptor; writes only on login/logout/401.
type CredentialStore interface {
	Load() (*Credentials, error) // ErrNoCredentials if absent
	Save(*Credentials) error
	Clear() error
}

// diskStore keeps credentials in a mode-0600 JSON file under the user config
// directory.
type diskStore struct {
	mu   sync.Mutex
	path string
}

// NewCredentialStore returns a store backed by
// ~/.config/medread/credentials.json (or $XDG_CONFIG_HOME).
func NewCredentialStore() (CredentialStore, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, "medread")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	return &diskStore{path: filepath.Join(dir, "credentials.json")}, nil
}

func (d *diskStore) Load() (*Credentials, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if creds.Token == "" {
		return nil, ErrNoCredentials
	}
	return &creds, nil
}

// Save writes atomically via a temp file + os.Rename so a crash mid-write
// never leaves a torn credential file.
func (d *diskStore) Save(creds *Credentials) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "credentials-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	return nil
}

func (d *diskStore) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// MemoryStore is an in-process CredentialStore for tests and embedding.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

func (m *MemoryStore) Load() (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil || m.creds.Token == "" {
		return nil, ErrNoCredentials
	}
	copied := *m.creds
	return &copied, nil
}

func (m *MemoryStore) Save(creds *Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *creds
	m.creds = &copied
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}
