// Package credstore persists the user's API keys in client-local
// storage. Keys never leave the machine except as part of a
// verification request's own transport.
package credstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sravan1011/Clamify/internal/model"
)

// schemaVersion allows future key rotation without breaking stored values.
const schemaVersion = 1

const fileName = "credentials.yaml"

// credentialsFile is the on-disk schema.
type credentialsFile struct {
	Version   int    `yaml:"version"`
	GeminiKey string `yaml:"gemini_key"`
	TavilyKey string `yaml:"tavily_key,omitempty"`
}

// Store reads and writes credentials under a single directory
// (default: ~/.clamify).
type Store struct {
	dir string
}

// NewStore creates a store rooted at ~/.clamify.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("find home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(home, ".clamify")), nil
}

// NewStoreAt creates a store rooted at the given directory.
func NewStoreAt(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the credentials file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Load returns the stored credentials. When nothing has been stored it
// returns zero-valued credentials and no error; callers must treat that
// as "not configured" and block submission.
func (s *Store) Load() (model.Credentials, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return model.Credentials{}, nil
		}
		return model.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	if f.Version != schemaVersion {
		return model.Credentials{}, fmt.Errorf("unsupported credentials schema version %d", f.Version)
	}

	return model.Credentials{
		GeminiKey: strings.TrimSpace(f.GeminiKey),
		TavilyKey: strings.TrimSpace(f.TavilyKey),
	}, nil
}

// Save validates, trims, and persists the keys. An empty Gemini key is
// rejected and leaves prior stored state untouched. An empty Tavily key
// after trimming is normalized to absent, not stored as an empty string.
func (s *Store) Save(geminiKey, tavilyKey string) error {
	geminiKey = strings.TrimSpace(geminiKey)
	tavilyKey = strings.TrimSpace(tavilyKey)

	if geminiKey == "" {
		return &model.ValidationError{Msg: "Gemini API key is required"}
	}

	f := credentialsFile{
		Version:   schemaVersion,
		GeminiKey: geminiKey,
		TavilyKey: tavilyKey,
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	// Keys only, so owner-readable.
	if err := os.WriteFile(s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	return nil
}

// Clear removes the stored credentials. Clearing an empty store is not
// an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
