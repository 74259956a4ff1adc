// Package securestore is the on-device persistence for session data. Values
// are sealed with XChaCha20-Poly1305 under per-entry subkeys derived from a
// random master key kept next to the data, so a copied value file alone is
// useless and any tampering fails authentication.
package securestore

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"clinic-client/internal/errs"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Store is the key-value capability the session layer depends on.
type Store interface {
	// Get returns the stored value, or errs.ErrNotFound.
	Get(key string) ([]byte, error)
	// Set writes the value, replacing any previous one.
	Set(key string, value []byte) error
	// Delete removes the value. Deleting a missing key is not an error.
	Delete(key string) error
}

const keyLen = 32

// FileStore keeps each entry as an encrypted file under dir.
type FileStore struct {
	dir    string
	master []byte
}

var _ Store = (*FileStore)(nil)

// Open prepares the store directory and loads the master key, creating it on
// first use.
func Open(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("securestore: %w", err)
	}
	keyPath := filepath.Join(dir, "store.key")
	master, err := os.ReadFile(keyPath)
	if errors.Is(err, os.ErrNotExist) {
		master = make([]byte, keyLen)
		if _, err := rand.Read(master); err != nil {
			return nil, err
		}
		if err := os.WriteFile(keyPath, master, 0o600); err != nil {
			return nil, fmt.Errorf("securestore: write master key: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("securestore: read master key: %w", err)
	}
	if len(master) != keyLen {
		return nil, fmt.Errorf("securestore: master key has %d bytes, want %d", len(master), keyLen)
	}
	return &FileStore{dir: dir, master: master}, nil
}

// entryKey derives a per-entry subkey via HKDF-SHA256 with the entry name as info.
func (s *FileStore) entryKey(name string) ([]byte, error) {
	key := make([]byte, keyLen)
	if _, err := hkdf.New(sha256.New, s.master, nil, []byte(name)).Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *FileStore) entryPath(name string) string {
	return filepath.Join(s.dir, name+".bin")
}

func (s *FileStore) Get(name string) ([]byte, error) {
	blob, err := os.ReadFile(s.entryPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("securestore: read %q: %w", name, err)
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("securestore: entry %q too short", name)
	}
	key, err := s.entryKey(name)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	// AAD binds the ciphertext to the entry name.
	pt, err := aead.Open(nil, nonce, ct, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("securestore: open %q: %w", name, err)
	}
	return pt, nil
}

func (s *FileStore) Set(name string, value []byte) error {
	key, err := s.entryKey(name)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	out := make([]byte, 0, len(nonce)+len(value)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, value, []byte(name))...)
	if err := os.WriteFile(s.entryPath(name), out, 0o600); err != nil {
		return fmt.Errorf("securestore: write %q: %w", name, err)
	}
	return nil
}

func (s *FileStore) Delete(name string) error {
	err := os.Remove(s.entryPath(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("securestore: delete %q: %w", name, err)
	}
	return nil
}
