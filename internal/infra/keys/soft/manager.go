// Package soft implements a file-backed ed25519 key manager. The private
// key lives in a PKCS8 PEM file owned by the process; key material never
// leaves this package except as the raw public key.
package soft

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"attestd/internal/domain"
)

const privateKeyPEMType = "PRIVATE KEY"

// Manager holds the process signing key loaded from (or generated at) a
// configured path. Construct once at startup; all methods are read-only
// afterwards.
type Manager struct {
	path       string
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	keyID      string
}

// NewManager ensures a keypair exists at path and loads it.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: key path is required", domain.ErrKeyLoad)
	}
	if err := EnsureKeypair(path); err != nil {
		return nil, err
	}
	priv, err := LoadPrivateKey(path)
	if err != nil {
		return nil, err
	}
	pub := priv.Public().(ed25519.PublicKey)
	return &Manager{
		path:       path,
		privateKey: priv,
		publicKey:  pub,
		keyID:      KeyIDFromPublic(pub),
	}, nil
}

func (m *Manager) Sign(payload []byte) ([]byte, error) {
	if len(m.privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: signing key not loaded", domain.ErrKeyLoad)
	}
	return ed25519.Sign(m.privateKey, payload), nil
}

func (m *Manager) KeyID() string {
	return m.keyID
}

func (m *Manager) PublicKey() ed25519.PublicKey {
	return append(ed25519.PublicKey(nil), m.publicKey...)
}

func (m *Manager) PrivateKey() ed25519.PrivateKey {
	return m.privateKey
}

// EnsureKeypair generates and persists a new ed25519 keypair at path unless
// a key file already exists. Parent directories are created as needed.
// Idempotent; safe to call on every process start.
func EnsureKeypair(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat %s: %v", domain.ErrKeyLoad, path, err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("%w: generate key: %v", domain.ErrKeyLoad, err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("%w: encode key: %v", domain.ErrKeyFormat, err)
	}
	encoded := pem.EncodeToMemory(&pem.Block{Type: privateKeyPEMType, Bytes: der})

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: create key directory: %v", domain.ErrKeyLoad, err)
		}
	}
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return fmt.Errorf("%w: write key file: %v", domain.ErrKeyLoad, err)
	}
	return nil
}

// LoadPrivateKey reads a PKCS8 PEM ed25519 private key from path.
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrKeyLoad, path, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != privateKeyPEMType {
		return nil, fmt.Errorf("%w: no %s PEM block in %s", domain.ErrKeyFormat, privateKeyPEMType, path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse PKCS8: %v", domain.ErrKeyFormat, err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key at %s is not ed25519", domain.ErrKeyFormat, path)
	}
	return priv, nil
}

// PublicKeyBytes returns the 32-byte raw public key for the key at path.
func PublicKeyBytes(path string) ([]byte, error) {
	priv, err := LoadPrivateKey(path)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), priv.Public().(ed25519.PublicKey)...), nil
}

// KeyIDFromPublic derives the content-addressed key identifier
// hex(sha256(pub)). Deterministic for a given public key, so every process
// holding the same key reports the same keyid.
func KeyIDFromPublic(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:])
}
