package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
)

// ErrNoKeys is returned when an X25519 key pair has not been generated yet.
var ErrNoKeys = errors.New("snapshot keys not set up; run 'drawer snapshot keygen'")

// KeyPair manages the X25519 key pair used to seal snapshots.
// The recipient (public key) is stored in plaintext; the identity (private
// key) is stored encrypted with the user's passphrase.
type KeyPair struct {
	recipientsFile string
	identityFile   string
}

// NewKeyPair returns a KeyPair backed by the given files.
func NewKeyPair(recipientsFile, identityFile string) *KeyPair {
	return &KeyPair{recipientsFile: recipientsFile, identityFile: identityFile}
}

// Generate creates a new X25519 identity, writes its recipient in plaintext
// and writes the identity encrypted with passphrase. Existing keys are not
// overwritten.
func (k *KeyPair) Generate(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	if k.IsConfigured() {
		return fmt.Errorf("key pair already exists at %s", k.identityFile)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	for _, p := range []string{k.recipientsFile, k.identityFile} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	if err := os.WriteFile(k.recipientsFile, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing recipients file: %w", err)
	}

	f, err := os.OpenFile(k.identityFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}
	defer f.Close()

	scrypt, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	w, err := age.Encrypt(f, scrypt)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return fmt.Errorf("writing identity: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing identity file: %w", err)
	}
	return nil
}

// IsConfigured reports whether both key files exist.
func (k *KeyPair) IsConfigured() bool {
	if _, err := os.Stat(k.recipientsFile); err != nil {
		return false
	}
	if _, err := os.Stat(k.identityFile); err != nil {
		return false
	}
	return true
}

// Recipients parses the recipients file. Every recipient listed there can
// open the sealed snapshot.
func (k *KeyPair) Recipients() ([]age.Recipient, error) {
	data, err := os.ReadFile(k.recipientsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoKeys
	}
	if err != nil {
		return nil, fmt.Errorf("reading recipients file: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing recipients file: %w", err)
	}
	return recipients, nil
}

// Unlock decrypts the identity file with passphrase.
func (k *KeyPair) Unlock(passphrase string) (age.Identity, error) {
	data, err := os.ReadFile(k.identityFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoKeys
	}
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(data), scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypting identity file: %w", err)
	}

	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", k.identityFile)
	}
	return identities[0], nil
}
