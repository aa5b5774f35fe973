package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nikbrunner/bmsort/internal/model"
)

// Storage defines the interface for persisting bookmarks.
type Storage interface {
	Load() (*model.Store, error)
	Save(store *model.Store) error
}

// Backend names accepted in Config.Storage.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// JSONStorage implements Storage using a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads the store from the JSON file.
// Returns a store holding only the root folders if the file doesn't exist.
func (s *JSONStorage) Load() (*model.Store, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewStore(), nil
		}
		return nil, err
	}

	var store model.Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	store.EnsureRoots()

	return &store, nil
}

// Save writes the store to the JSON file through a temp file and rename, so
// readers never see a partial file.
// Creates the directory if it doesn't exist.
func (s *JSONStorage) Save(store *model.Store) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(store.Copy(), "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".bookmarks-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// DefaultDir returns the application directory: ~/.config/bmsort
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "bmsort"), nil
}

// DefaultJSONPath returns the default JSON store path: ~/.config/bmsort/bookmarks.json
func DefaultJSONPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bookmarks.json"), nil
}

// OpenStorage opens the backend named by config.Storage inside dir.
// With no backend configured it prefers SQLite if the database file exists,
// otherwise falls back to JSON.
func OpenStorage(dir string, config *Config) (Storage, error) {
	sqlitePath := filepath.Join(dir, "bookmarks.db")
	jsonPath := filepath.Join(dir, "bookmarks.json")

	switch config.Storage {
	case BackendSQLite:
		return NewSQLiteStorage(sqlitePath)
	case BackendJSON:
		return NewJSONStorage(jsonPath), nil
	case "":
		if _, err := os.Stat(sqlitePath); err == nil {
			return NewSQLiteStorage(sqlitePath)
		}
		return NewJSONStorage(jsonPath), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.Storage)
	}
}
