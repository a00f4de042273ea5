package crypto

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"attestd/internal/domain"
)

// SignEnvelope wraps payload in a DSSE envelope carrying a single ed25519
// signature over PAE(payloadType, payload). keyid is recorded on the
// signature entry when non-empty.
func SignEnvelope(payloadType string, payload []byte, privateKey ed25519.PrivateKey, keyid string) (domain.Envelope, error) {
	if payloadType == "" {
		return domain.Envelope{}, fmt.Errorf("%w: payloadType is required", domain.ErrMalformedEnvelope)
	}
	if len(privateKey) != ed25519.PrivateKeySize {
		return domain.Envelope{}, fmt.Errorf("%w: invalid ed25519 private key length %d", domain.ErrKeyFormat, len(privateKey))
	}
	sig := ed25519.Sign(privateKey, PAE(payloadType, payload))
	return domain.Envelope{
		PayloadType: payloadType,
		Payload:     base64.RawURLEncoding.EncodeToString(payload),
		Signatures: []domain.EnvelopeSignature{{
			KeyID: keyid,
			Sig:   base64.RawURLEncoding.EncodeToString(sig),
		}},
	}, nil
}

// SignEnvelopeWith is SignEnvelope for callers that hold a domain.Signer
// instead of raw key material; the signature is tagged with the signer's
// keyid.
func SignEnvelopeWith(payloadType string, payload []byte, signer domain.Signer) (domain.Envelope, error) {
	if payloadType == "" {
		return domain.Envelope{}, fmt.Errorf("%w: payloadType is required", domain.ErrMalformedEnvelope)
	}
	sig, err := signer.Sign(PAE(payloadType, payload))
	if err != nil {
		return domain.Envelope{}, err
	}
	return domain.Envelope{
		PayloadType: payloadType,
		Payload:     base64.RawURLEncoding.EncodeToString(payload),
		Signatures: []domain.EnvelopeSignature{{
			KeyID: signer.KeyID(),
			Sig:   base64.RawURLEncoding.EncodeToString(sig),
		}},
	}, nil
}

// VerifyEnvelope checks the envelope's signatures against an ordered set of
// trusted keys. For each signature the key matching its keyid is tried
// first, then the remaining keys in order; the first key that validates any
// signature wins and is reported in the result. The decoded payload is only
// released on success.
func VerifyEnvelope(env domain.Envelope, keys []domain.TrustedKey) (domain.VerificationResult, error) {
	if env.PayloadType == "" {
		return domain.VerificationResult{}, fmt.Errorf("%w: payloadType is required", domain.ErrMalformedEnvelope)
	}
	if env.Payload == "" {
		return domain.VerificationResult{}, fmt.Errorf("%w: payload is required", domain.ErrMalformedEnvelope)
	}
	if len(env.Signatures) == 0 {
		return domain.VerificationResult{}, fmt.Errorf("%w: signatures are required", domain.ErrMalformedEnvelope)
	}

	payload, err := decodeBase64URL(env.Payload)
	if err != nil {
		return domain.VerificationResult{}, fmt.Errorf("%w: invalid payload encoding", domain.ErrMalformedEnvelope)
	}
	pae := PAE(env.PayloadType, payload)

	for _, entry := range env.Signatures {
		if entry.Sig == "" {
			return domain.VerificationResult{}, fmt.Errorf("%w: signature value is required", domain.ErrMalformedEnvelope)
		}
		sig, err := decodeBase64URL(entry.Sig)
		if err != nil {
			return domain.VerificationResult{}, fmt.Errorf("%w: invalid signature encoding", domain.ErrMalformedEnvelope)
		}
		if len(sig) != ed25519.SignatureSize {
			return domain.VerificationResult{}, fmt.Errorf("%w: invalid ed25519 signature length %d", domain.ErrMalformedEnvelope, len(sig))
		}
		for _, key := range candidateKeys(entry.KeyID, keys) {
			if len(key.PublicKey) != ed25519.PublicKeySize {
				continue
			}
			if ed25519.Verify(key.PublicKey, pae, sig) {
				return domain.VerificationResult{Payload: payload, KeyID: key.KeyID}, nil
			}
		}
	}
	return domain.VerificationResult{}, fmt.Errorf("%w: no signature validated by any trusted key", domain.ErrSignatureInvalid)
}

// candidateKeys orders the trusted set for one signature entry: the key
// whose id matches the entry first, then the rest in configured order.
func candidateKeys(keyid string, keys []domain.TrustedKey) []domain.TrustedKey {
	if keyid == "" {
		return keys
	}
	ordered := make([]domain.TrustedKey, 0, len(keys))
	for _, key := range keys {
		if key.KeyID == keyid {
			ordered = append(ordered, key)
		}
	}
	for _, key := range keys {
		if key.KeyID != keyid {
			ordered = append(ordered, key)
		}
	}
	return ordered
}

func decodeBase64URL(value string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
}
