package vault

import (
	"context"
	"fmt"

	"drawer-go/internal/config"
	"drawer-go/internal/drawer"
)

// NewVaultFromConfig creates a Vault implementation based on the vault config type.
// It returns nil without error when no vault is configured.
func NewVaultFromConfig(ctx context.Context, cfg config.VaultConfig) (drawer.Vault, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "memory":
		return NewMemoryVault(), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
		}
		v, err := NewS3VaultFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return v, nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem vault requires fs_root to be set")
		}
		v, err := NewFileSystemVault(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
