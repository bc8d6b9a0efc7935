package encryption

import (
	"fmt"
	"io"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"

	"drawer-go/internal/drawer"
)

// Sealer compresses snapshots with zstd and, when configured, encrypts the
// compressed stream with age.
type Sealer struct {
	level      zstd.EncoderLevel
	recipients func() ([]age.Recipient, error)
	identity   func() (age.Identity, error)
}

var _ drawer.Sealer = (*Sealer)(nil)

// NewPlainSealer returns a Sealer that only compresses.
func NewPlainSealer(level int) (*Sealer, error) {
	l, err := encoderLevel(level)
	if err != nil {
		return nil, err
	}
	return &Sealer{level: l}, nil
}

// NewPassphraseSealer returns a Sealer that encrypts with an scrypt
// recipient derived from the passphrase returned by prompt.
func NewPassphraseSealer(level int, prompt PassphraseFunc) (*Sealer, error) {
	l, err := encoderLevel(level)
	if err != nil {
		return nil, err
	}
	return &Sealer{
		level: l,
		recipients: func() ([]age.Recipient, error) {
			pass, err := prompt("Snapshot passphrase: ")
			if err != nil {
				return nil, err
			}
			r, err := age.NewScryptRecipient(pass)
			if err != nil {
				return nil, fmt.Errorf("creating scrypt recipient: %w", err)
			}
			return []age.Recipient{r}, nil
		},
		identity: func() (age.Identity, error) {
			pass, err := prompt("Snapshot passphrase: ")
			if err != nil {
				return nil, err
			}
			id, err := age.NewScryptIdentity(pass)
			if err != nil {
				return nil, fmt.Errorf("creating scrypt identity: %w", err)
			}
			return id, nil
		},
	}, nil
}

// NewKeyPairSealer returns a Sealer that encrypts to the key pair's
// recipients. Opening unlocks the identity with the passphrase from prompt;
// sealing never prompts.
func NewKeyPairSealer(level int, keys *KeyPair, prompt PassphraseFunc) (*Sealer, error) {
	l, err := encoderLevel(level)
	if err != nil {
		return nil, err
	}
	return &Sealer{
		level:      l,
		recipients: keys.Recipients,
		identity: func() (age.Identity, error) {
			pass, err := prompt("Identity passphrase: ")
			if err != nil {
				return nil, err
			}
			return keys.Unlock(pass)
		},
	}, nil
}

// Seal reads plaintext from r and writes the compressed, optionally
// encrypted, form to w.
func (s *Sealer) Seal(r io.Reader, w io.Writer) error {
	dst := w
	var enc io.WriteCloser
	if s.recipients != nil {
		recipients, err := s.recipients()
		if err != nil {
			return fmt.Errorf("loading recipients: %w", err)
		}
		enc, err = age.Encrypt(w, recipients...)
		if err != nil {
			return fmt.Errorf("creating encrypted writer: %w", err)
		}
		dst = enc
	}

	zw, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(s.level))
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := io.Copy(zw, r); err != nil {
		zw.Close()
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing compression: %w", err)
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("finalizing encryption: %w", err)
		}
	}
	return nil
}

// Open reverses Seal.
func (s *Sealer) Open(r io.Reader, w io.Writer) error {
	src := r
	if s.identity != nil {
		identity, err := s.identity()
		if err != nil {
			return fmt.Errorf("loading identity: %w", err)
		}
		src, err = age.Decrypt(r, identity)
		if err != nil {
			return fmt.Errorf("decrypting snapshot: %w", err)
		}
	}

	zr, err := zstd.NewReader(src)
	if err != nil {
		return fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	if _, err := io.Copy(w, zr); err != nil {
		return fmt.Errorf("decompressing snapshot: %w", err)
	}
	return nil
}

func encoderLevel(level int) (zstd.EncoderLevel, error) {
	if level == 0 {
		return zstd.SpeedDefault, nil
	}
	if level < int(zstd.SpeedFastest) || level > int(zstd.SpeedBestCompression) {
		return 0, fmt.Errorf("compression level %d out of range 1-4", level)
	}
	return zstd.EncoderLevel(level), nil
}
