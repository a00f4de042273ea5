package domain

import "crypto/ed25519"

// Signer signs DSSE pre-authentication encodings with the process key and
// reports the keyid the signature should be tagged with.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
	KeyID() string
	PublicKey() ed25519.PublicKey
}

// TrustedKey is one entry of the ordered trusted-key set used during
// verification. Order matters: keys are tried first-match-wins so the
// reported keyid is deterministic.
type TrustedKey struct {
	KeyID     string
	PublicKey ed25519.PublicKey
}

// KeyRing resolves the keys an envelope may verify against.
type KeyRing interface {
	TrustedKeys() []TrustedKey
}
