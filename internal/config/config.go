package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for drawer.
type Config struct {
	DefaultOwner string         `toml:"default_owner"`
	BaseDir      string         `toml:"base_dir"`
	LogDir       string         `toml:"log_dir"`
	LogLevel     string         `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	Database     DatabaseConfig `toml:"database"`
	Vault        VaultConfig    `toml:"vault"`
	Snapshot     SnapshotConfig `toml:"snapshot"`
	Import       ImportConfig   `toml:"import"`
}

// DatabaseConfig represents configuration for the metadata store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory" or "postgres"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
	DSN     string `toml:"dsn,omitempty"`      // only used for type=postgres
}

// VaultConfig represents configuration for the snapshot vault.
// An empty Type disables snapshots.
type VaultConfig struct {
	Type string `toml:"type"` // "", "memory", "filesystem" or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// SnapshotConfig controls how metadata snapshots are sealed before upload.
type SnapshotConfig struct {
	Encryption       string `toml:"encryption"` // "none", "passphrase" or "x25519"
	RecipientsFile   string `toml:"recipients_file,omitempty"`
	IdentityFile     string `toml:"identity_file,omitempty"`
	CompressionLevel int    `toml:"compression_level,omitempty"` // zstd level, 1-4; 0 means default
}

// ImportConfig holds settings for importing local trees.
type ImportConfig struct {
	Ignore []string `toml:"ignore"`
}

// NewConfig creates a new Config with the provided owner and default paths under baseDir.
func NewConfig(owner, baseDir string) *Config {
	return &Config{
		DefaultOwner: owner,
		BaseDir:      baseDir,
		LogDir:       filepath.Join(baseDir, "log"),
		LogLevel:     "info",
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Snapshot: SnapshotConfig{
			Encryption:     "x25519",
			RecipientsFile: filepath.Join(baseDir, "keys", "drawer.pub"),
			IdentityFile:   filepath.Join(baseDir, "keys", "drawer.key"),
		},
		Import: ImportConfig{
			Ignore: []string{".git", ".DS_Store"},
		},
	}
}

// Validate checks that the tagged unions carry the fields their type needs.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.DataDir == "" {
			return fmt.Errorf("database: data_dir required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database: dsn required for postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("database: unknown type %q", c.Database.Type)
	}

	switch c.Vault.Type {
	case "", "memory":
	case "filesystem":
		if c.Vault.FSRoot == "" {
			return fmt.Errorf("vault: fs_root required for filesystem")
		}
	case "s3":
		if c.Vault.S3Bucket == "" {
			return fmt.Errorf("vault: s3_bucket required for s3")
		}
	default:
		return fmt.Errorf("vault: unknown type %q", c.Vault.Type)
	}

	switch c.Snapshot.Encryption {
	case "", "none", "passphrase":
	case "x25519":
		if c.Snapshot.RecipientsFile == "" && c.Snapshot.IdentityFile == "" {
			return fmt.Errorf("snapshot: recipients_file or identity_file required for x25519")
		}
	default:
		return fmt.Errorf("snapshot: unknown encryption %q", c.Snapshot.Encryption)
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
