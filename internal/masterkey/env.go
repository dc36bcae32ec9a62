package masterkey

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"sealfs-go/internal/aead"
	"sealfs-go/internal/sealfs"
)

// EnvProvider reads a hex-encoded 256-bit master key from an environment
// variable. When a dotenv path is configured, that file is loaded into the
// environment first, so containerized deployments can mount the key as a
// file without exporting it in the unit definition.
type EnvProvider struct {
	envVar     string
	dotenvPath string
}

var _ sealfs.MasterKeyProvider = (*EnvProvider)(nil)

// NewEnvProvider creates a provider reading envVar, optionally loading
// dotenvPath first. Pass an empty dotenvPath to use the process environment
// as-is.
func NewEnvProvider(envVar, dotenvPath string) *EnvProvider {
	return &EnvProvider{envVar: envVar, dotenvPath: dotenvPath}
}

// MasterCipher resolves the key from the environment and returns the AEAD
// over it.
func (p *EnvProvider) MasterCipher() (sealfs.Cipher, error) {
	if p.dotenvPath != "" {
		if err := godotenv.Load(p.dotenvPath); err != nil {
			return nil, fmt.Errorf("loading dotenv file %s: %w", p.dotenvPath, err)
		}
	}

	value := os.Getenv(p.envVar)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s is not set: %w", p.envVar, sealfs.ErrMasterKey)
	}

	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decoding %s as hex: %w", p.envVar, sealfs.ErrMasterKey)
	}
	defer clear(key)

	if len(key) != aead.KeySize {
		return nil, fmt.Errorf("%s holds %d key bytes, want %d: %w", p.envVar, len(key), aead.KeySize, sealfs.ErrMasterKey)
	}

	return aead.NewGCM(key)
}

// IsConfigured reports whether the variable is set, loading the dotenv file
// first when one is configured.
func (p *EnvProvider) IsConfigured() bool {
	if p.dotenvPath != "" {
		// Best effort: a missing dotenv file just means the variable must
		// already be exported.
		_ = godotenv.Load(p.dotenvPath)
	}
	return os.Getenv(p.envVar) != ""
}
