package usecase

import (
	"context"
	"time"

	"attestd/internal/domain"
)

// CryptoService is the canonicalization + DSSE surface the use cases
// depend on.
type CryptoService interface {
	CanonicalizeStatement(statement domain.Statement) ([]byte, error)
	SignEnvelopeWith(payloadType string, payload []byte, signer domain.Signer) (domain.Envelope, error)
	VerifyEnvelope(env domain.Envelope, keys []domain.TrustedKey) (domain.VerificationResult, error)
}

// AttestationStore records issued attestations and serves lookups by
// subject digest.
type AttestationStore interface {
	Record(ctx context.Context, attestation domain.Attestation) error
	ListBySubjectSHA256(ctx context.Context, digest string) ([]domain.Attestation, error)
	GetByID(ctx context.Context, id string) (domain.Attestation, error)
}

// VerificationCache memoizes successful envelope verifications. Sound to
// cache because verification is a pure predicate over envelope + key set.
type VerificationCache interface {
	Get(ctx context.Context, key string) (*domain.VerificationResult, bool, error)
	Put(ctx context.Context, key string, value domain.VerificationResult, ttl time.Duration) error
}
