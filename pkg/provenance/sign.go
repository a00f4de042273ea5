package provenance

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"attestd/internal/domain"
	cryptoinfra "attestd/internal/infra/crypto"
)

// SignStatement canonicalizes a statement and wraps it in a signed DSSE
// envelope. Returns the envelope together with the canonical payload bytes
// so callers can record or compare them.
func SignStatement(statement domain.Statement, privateKey ed25519.PrivateKey, keyid string) (domain.Envelope, []byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return domain.Envelope{}, nil, fmt.Errorf("%w: invalid ed25519 private key", domain.ErrKeyFormat)
	}
	canonical, err := cryptoinfra.Canonicalize(statement)
	if err != nil {
		return domain.Envelope{}, nil, err
	}
	envelope, err := cryptoinfra.SignEnvelope(domain.PayloadTypeInToto, canonical, privateKey, keyid)
	if err != nil {
		return domain.Envelope{}, nil, err
	}
	return envelope, canonical, nil
}

func ParseEd25519PublicKeyHex(value string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex: %v", domain.ErrKeyFormat, err)
	}
	return parsePublicKeyBytes(raw)
}

func ParseEd25519PublicKeyBase64(value string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", domain.ErrKeyFormat, err)
	}
	return parsePublicKeyBytes(raw)
}

func parsePublicKeyBytes(raw []byte) (ed25519.PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: invalid ed25519 public key length %d", domain.ErrKeyFormat, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
