// Package config loads and persists the CLI configuration.
//
// The configuration lives in a TOML file at ~/.lambdalabs/config.toml. It
// holds the API key, so the directory is created 0700 and the file is
// written 0600.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DirName is the configuration directory under the user's home.
	DirName = ".lambdalabs"
	// FileName is the configuration file inside DirName.
	FileName = "config.toml"
)

// Config represents the persisted CLI configuration.
type Config struct {
	APIKey            string        `toml:"api_key"`
	SSHDir            string        `toml:"ssh_dir"`
	DefaultFilesystem string        `toml:"default_filesystem,omitempty"`
	Logging           LoggingConfig `toml:"logging,omitempty"`

	// path is where the config was loaded from and will be saved to.
	path string
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
	Output string `toml:"output,omitempty"`
}

// DefaultPath returns ~/.lambdalabs/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName, FileName), nil
}

// Load reads the configuration from path. If the file does not exist, a
// default configuration is created and saved so first runs leave a file the
// user can edit.
func Load(path string) (*Config, error) {
	cfg := defaults()
	cfg.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if saveErr := cfg.Save(); saveErr != nil {
			return nil, saveErr
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.SSHDir == "" {
		cfg.SSHDir = defaultSSHDir()
	}
	return cfg, nil
}

// Save writes the configuration back to its file with restricted
// permissions.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(c.path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate reports configuration problems. An empty API key is legal here;
// commands that need it check separately so `config set-api-key` still works.
func (c *Config) Validate() []error {
	var errs []error

	if c.SSHDir == "" {
		errs = append(errs, fmt.Errorf("ssh_dir is required"))
	}

	if c.Logging.Level != "" {
		valid := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !valid[strings.ToLower(c.Logging.Level)] {
			errs = append(errs, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}
	if c.Logging.Format != "" {
		valid := map[string]bool{"json": true, "text": true}
		if !valid[strings.ToLower(c.Logging.Format)] {
			errs = append(errs, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	return errs
}

// SSHPublicKey returns the first public key found in SSHDir, scanning the
// conventional filenames in order. Returns "" if none exist.
func (c *Config) SSHPublicKey() (string, error) {
	for _, name := range []string{"id_rsa.pub", "id_ed25519.pub", "id_ecdsa.pub"} {
		path := filepath.Join(c.SSHDir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", nil
}

// RedactedAPIKey returns the API key with the middle elided for display.
// Keys of 16 characters or fewer are returned unchanged.
func (c *Config) RedactedAPIKey() string {
	if len(c.APIKey) <= 16 {
		return c.APIKey
	}
	return c.APIKey[:8] + "..." + c.APIKey[len(c.APIKey)-8:]
}

func defaults() *Config {
	return &Config{
		SSHDir: defaultSSHDir(),
	}
}

func defaultSSHDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ssh"
	}
	return filepath.Join(home, ".ssh")
}
