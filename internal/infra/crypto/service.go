package crypto

import (
	"crypto/ed25519"

	"attestd/internal/domain"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// CanonicalizeStatement produces the exact payload bytes an in-toto
// statement is signed over.
func (s *Service) CanonicalizeStatement(statement domain.Statement) ([]byte, error) {
	return Canonicalize(statement)
}

func (s *Service) Canonicalize(payload any) ([]byte, error) {
	return Canonicalize(payload)
}

func (s *Service) SignEnvelope(payloadType string, payload []byte, privateKey ed25519.PrivateKey, keyid string) (domain.Envelope, error) {
	return SignEnvelope(payloadType, payload, privateKey, keyid)
}

func (s *Service) SignEnvelopeWith(payloadType string, payload []byte, signer domain.Signer) (domain.Envelope, error) {
	return SignEnvelopeWith(payloadType, payload, signer)
}

func (s *Service) VerifyEnvelope(env domain.Envelope, keys []domain.TrustedKey) (domain.VerificationResult, error) {
	return VerifyEnvelope(env, keys)
}
