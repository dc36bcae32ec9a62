package masterkey

import (
	"encoding/hex"
	"fmt"

	"sealfs-go/internal/config"
	"sealfs-go/internal/sealfs"
)

// NewProviderFromConfig creates a MasterKeyProvider based on the master key
// config type. prompt is used by the passphrase provider when the config
// does not carry a passphrase; pass nil for non-interactive contexts.
func NewProviderFromConfig(cfg config.MasterKeyConfig, prompt PassphraseFunc) (sealfs.MasterKeyProvider, error) {
	switch cfg.Type {
	case "passphrase":
		if cfg.KeyPath == "" {
			return nil, fmt.Errorf("passphrase master key requires key_path to be set")
		}
		pass := prompt
		if cfg.Passphrase != "" {
			pass = StaticPassphrase(cfg.Passphrase)
		}
		if pass == nil {
			return nil, fmt.Errorf("passphrase master key requires a passphrase source")
		}
		return NewPassphraseProvider(cfg.KeyPath, pass), nil
	case "env":
		if cfg.EnvVar == "" {
			return nil, fmt.Errorf("env master key requires env_var to be set")
		}
		return NewEnvProvider(cfg.EnvVar, cfg.DotenvPath), nil
	case "file":
		if cfg.KeyPath == "" {
			return nil, fmt.Errorf("file master key requires key_path to be set")
		}
		return NewFileProvider(cfg.KeyPath), nil
	case "static":
		key, err := hex.DecodeString(cfg.KeyHex)
		if err != nil {
			return nil, fmt.Errorf("static master key requires key_hex as hex: %w", err)
		}
		return NewStaticProvider(key)
	default:
		return nil, fmt.Errorf("unknown master key type: %s", cfg.Type)
	}
}
