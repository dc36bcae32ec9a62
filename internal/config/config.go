package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultChunkSize is the plaintext chunk granularity used when the config
// does not set one. 16 KiB to 1 MiB are reasonable; below that the per-chunk
// overhead dominates, above it random access gets expensive.
const DefaultChunkSize = 65536

// Extension modes for mapping logical file names to container files.
const (
	// ExtensionTransparent stores the container at the path the user sees.
	ExtensionTransparent = "transparent"
	// ExtensionSuffixed stores the container at the logical path + ".enc".
	ExtensionSuffixed = "suffixed"
)

// Config is the main configuration for sealfs.
type Config struct {
	BaseDir     string          `toml:"base_dir"`
	LogDir      string          `toml:"log_dir"`
	StorageRoot string          `toml:"storage_root"`
	Container   ContainerConfig `toml:"container"`
	Keyset      KeysetConfig    `toml:"keyset"`
	MasterKey   MasterKeyConfig `toml:"master_key"`
	Auth        AuthConfig      `toml:"auth"`
}

// ContainerConfig holds the settings applied to every container channel.
type ContainerConfig struct {
	ChunkSize     uint32 `toml:"chunk_size"`     // plaintext bytes per chunk; must be > 0
	ExtensionMode string `toml:"extension_mode"` // "transparent" or "suffixed"
}

// KeysetConfig selects where the sealed keyset blob lives.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type KeysetConfig struct {
	Type string `toml:"type"` // "filesystem", "memory", or "s3"

	// Filesystem-specific fields (only used when Type == "filesystem")
	Path string `toml:"path,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Key       string `toml:"s3_key,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// MasterKeyConfig selects how the master key is provisioned.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type MasterKeyConfig struct {
	Type string `toml:"type"` // "passphrase", "env", "file", or "static"

	// Passphrase-specific fields: an age-encrypted key file unlocked with a
	// passphrase. Passphrase may be set for non-interactive use; when empty
	// the CLI prompts for it.
	KeyPath    string `toml:"key_path,omitempty"`
	Passphrase string `toml:"passphrase,omitempty"`

	// Env-specific fields: a hex-encoded key in an environment variable,
	// optionally loaded from a dotenv file first.
	EnvVar     string `toml:"env_var,omitempty"`
	DotenvPath string `toml:"dotenv_path,omitempty"`

	// File-specific field reuses KeyPath: a raw or hex key file.

	// Static-specific field (tests and tooling only): the key itself, hex.
	KeyHex string `toml:"key_hex,omitempty"`
}

// AuthConfig selects the credential store backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type AuthConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a Config with the default layout rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:     baseDir,
		LogDir:      filepath.Join(baseDir, "log"),
		StorageRoot: filepath.Join(baseDir, "storage"),
		Container: ContainerConfig{
			ChunkSize:     DefaultChunkSize,
			ExtensionMode: ExtensionTransparent,
		},
		Keyset: KeysetConfig{
			Type: "filesystem",
			Path: filepath.Join(baseDir, "keys", "keyset.sealed"),
		},
		MasterKey: MasterKeyConfig{
			Type:    "passphrase",
			KeyPath: filepath.Join(baseDir, "keys", "master.age"),
		},
		Auth: AuthConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
	}
}

// Validate checks the fields every component relies on. Backend-specific
// fields are checked by the factory that consumes them.
func (c *Config) Validate() error {
	if c.Container.ChunkSize == 0 {
		return fmt.Errorf("container.chunk_size must be positive")
	}
	switch c.Container.ExtensionMode {
	case ExtensionTransparent, ExtensionSuffixed:
	default:
		return fmt.Errorf("container.extension_mode must be %q or %q, got %q",
			ExtensionTransparent, ExtensionSuffixed, c.Container.ExtensionMode)
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
	if cfg.Container.ChunkSize == 0 {
		cfg.Container.ChunkSize = DefaultChunkSize
	}
	if cfg.Container.ExtensionMode == "" {
		cfg.Container.ExtensionMode = ExtensionTransparent
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
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
