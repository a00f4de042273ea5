package soft

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"attestd/internal/domain"
)

// Ring is an ordered set of trusted verification keys. The process's own
// key comes first; rotated-out or peer keys follow in configuration order,
// so first-match-wins verification stays deterministic.
type Ring struct {
	keys []domain.TrustedKey
}

func NewRing(manager *Manager) *Ring {
	ring := &Ring{}
	if manager != nil {
		ring.keys = append(ring.keys, domain.TrustedKey{
			KeyID:     manager.KeyID(),
			PublicKey: manager.PublicKey(),
		})
	}
	return ring
}

// AddPublicKeyHex appends a hex-encoded raw ed25519 public key to the ring.
// Its keyid is derived from the key bytes.
func (r *Ring) AddPublicKeyHex(value string) error {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%w: invalid public key hex: %v", domain.ErrKeyFormat, err)
	}
	return r.AddPublicKey(raw)
}

func (r *Ring) AddPublicKey(raw []byte) error {
	if len(raw) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: invalid ed25519 public key length %d", domain.ErrKeyFormat, len(raw))
	}
	pub := append(ed25519.PublicKey(nil), raw...)
	r.keys = append(r.keys, domain.TrustedKey{
		KeyID:     KeyIDFromPublic(pub),
		PublicKey: pub,
	})
	return nil
}

func (r *Ring) TrustedKeys() []domain.TrustedKey {
	return append([]domain.TrustedKey(nil), r.keys...)
}
