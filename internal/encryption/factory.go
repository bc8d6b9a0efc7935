package encryption

import (
	"fmt"

	"drawer-go/internal/config"
)

// NewSealerFromConfig creates a Sealer for the configured encryption mode.
func NewSealerFromConfig(cfg config.SnapshotConfig, prompt PassphraseFunc) (*Sealer, error) {
	switch cfg.Encryption {
	case "", "none":
		return NewPlainSealer(cfg.CompressionLevel)
	case "passphrase":
		return NewPassphraseSealer(cfg.CompressionLevel, Once(prompt))
	case "x25519":
		return NewKeyPairSealer(cfg.CompressionLevel, NewKeyPair(cfg.RecipientsFile, cfg.IdentityFile), Once(prompt))
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Encryption)
	}
}
