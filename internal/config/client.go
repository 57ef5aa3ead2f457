package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is used when neither the config file nor the environment names a server.
const DefaultServerURL = "http://localhost:8080"

// Client is the fin CLI configuration file.
type Client struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token,omitempty"`
}

// Default returns a Client config pointing at a local server.
func Default() *Client {
	return &Client{ServerURL: DefaultServerURL}
}

// DefaultPath returns $XDG_CONFIG_HOME/fin/config.yaml, falling back to the
// user config directory of the platform.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locating config directory: %w", err)
		}
	}
	return filepath.Join(dir, "fin", "config.yaml"), nil
}

// Load reads a client config file from disk.
func Load(path string) (*Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Client, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a client config file, creating its directory. The file holds a
// session token, so it is only readable by the owner.
func Save(path string, cfg *Client) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// FileTokenStore persists the session token inside the client config file.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore returns a token store backed by the config file at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// LoadToken returns the stored token, or "" if there is none.
func (s *FileTokenStore) LoadToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := LoadOrDefault(s.path)
	if err != nil {
		return "", err
	}
	return cfg.Token, nil
}

// SaveToken stores token, keeping the rest of the file intact.
func (s *FileTokenStore) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := LoadOrDefault(s.path)
	if err != nil {
		return err
	}
	cfg.Token = token
	return Save(s.path, cfg)
}

// ClearToken removes the stored token.
func (s *FileTokenStore) ClearToken() error {
	return s.SaveToken("")
}
