package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// CredentialStore holds the single opaque backend credential.
// An empty value means no credential is configured.
type CredentialStore interface {
	Get() (string, error)
	Set(value string) error
}

// FileCredentialStore keeps the credential in a file readable only by the owner.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore creates a store backed by path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Get returns the stored credential, or "" if none was set.
func (s *FileCredentialStore) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Set stores value. An empty value removes the credential.
func (s *FileCredentialStore) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		err := os.Remove(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(value+"\n"), 0600)
}

// CredentialEnvVars are checked in order before the wrapped store.
var CredentialEnvVars = []string{"BMSORT_API_KEY", "DEEPSEEK_API_KEY"}

// EnvCredentialStore prefers environment variables over the wrapped store.
// Set always writes through to the wrapped store.
type EnvCredentialStore struct {
	next   CredentialStore
	lookup func(string) (string, bool)
}

// NewEnvCredentialStore wraps next with an environment override.
func NewEnvCredentialStore(next CredentialStore) *EnvCredentialStore {
	return &EnvCredentialStore{next: next, lookup: os.LookupEnv}
}

// Get returns the first non-empty environment value, else the wrapped value.
func (s *EnvCredentialStore) Get() (string, error) {
	for _, name := range CredentialEnvVars {
		if v, ok := s.lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return s.next.Get()
}

// Set writes value to the wrapped store.
func (s *EnvCredentialStore) Set(value string) error {
	return s.next.Set(value)
}

// DefaultCredentialPath returns ~/.config/bmsort/credential
func DefaultCredentialPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credential"), nil
}

// MaskCredential hides all but the last four characters.
func MaskCredential(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
