package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"attestd/internal/domain"
)

type VerifyAttestationRequest struct {
	Envelope domain.Envelope
	// ExpectedSHA256 optionally pins the statement to an artifact: at
	// least one subject digest must equal it.
	ExpectedSHA256 string
}

type VerifyAttestationResult struct {
	Statement domain.Statement
	KeyID     string
	Payload   []byte
}

// VerifyAttestation validates a DSSE envelope against the trusted key ring,
// decodes the payload into an in-toto statement and checks its shape. No
// partial data is released on any failure.
type VerifyAttestation struct {
	Crypto CryptoService
	Keys   domain.KeyRing
	// AcceptedPredicateTypes defaults to SLSA v1 plus its legacy "/v1.0"
	// spelling, kept configurable since the leniency is a compatibility
	// shim rather than a contract.
	AcceptedPredicateTypes []string
	Cache                  VerificationCache
	CacheTTL               time.Duration
}

func (uc *VerifyAttestation) Execute(ctx context.Context, req VerifyAttestationRequest) (*VerifyAttestationResult, error) {
	keys := uc.Keys.TrustedKeys()

	verification, err := uc.verifyEnvelope(ctx, req.Envelope, keys)
	if err != nil {
		return nil, err
	}

	var statement domain.Statement
	if err := json.Unmarshal(verification.Payload, &statement); err != nil {
		return nil, fmt.Errorf("%w: payload is not a valid statement: %v", domain.ErrSchema, err)
	}
	if !uc.predicateTypeAccepted(statement.PredicateType) {
		return nil, fmt.Errorf("%w: predicateType %q is not SLSA v1", domain.ErrSchema, statement.PredicateType)
	}

	if req.ExpectedSHA256 != "" && !subjectDigestMatches(statement.Subject, req.ExpectedSHA256) {
		return nil, fmt.Errorf("%w: subject digest does not match artifact", domain.ErrSchema)
	}

	return &VerifyAttestationResult{
		Statement: statement,
		KeyID:     verification.KeyID,
		Payload:   verification.Payload,
	}, nil
}

func (uc *VerifyAttestation) verifyEnvelope(ctx context.Context, env domain.Envelope, keys []domain.TrustedKey) (domain.VerificationResult, error) {
	cacheKey := ""
	if uc.Cache != nil {
		cacheKey = verificationCacheKey(env, keys)
		if cached, ok, err := uc.Cache.Get(ctx, cacheKey); err == nil && ok && cached != nil {
			return *cached, nil
		}
	}
	verification, err := uc.Crypto.VerifyEnvelope(env, keys)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	if uc.Cache != nil && cacheKey != "" {
		_ = uc.Cache.Put(ctx, cacheKey, verification, uc.CacheTTL)
	}
	return verification, nil
}

func (uc *VerifyAttestation) predicateTypeAccepted(predicateType string) bool {
	accepted := uc.AcceptedPredicateTypes
	if len(accepted) == 0 {
		accepted = []string{domain.PredicateSLSAProvenance, domain.PredicateSLSAProvenanceLegacy}
	}
	for _, candidate := range accepted {
		if predicateType == candidate {
			return true
		}
	}
	return false
}

func subjectDigestMatches(subjects []domain.Subject, expected string) bool {
	for _, subject := range subjects {
		if subject.SHA256() == expected {
			return true
		}
	}
	return false
}

// verificationCacheKey binds the cached result to the exact envelope bytes
// and the key set it was checked against.
func verificationCacheKey(env domain.Envelope, keys []domain.TrustedKey) string {
	h := sha256.New()
	h.Write([]byte(env.PayloadType))
	h.Write([]byte{0})
	h.Write([]byte(env.Payload))
	for _, sig := range env.Signatures {
		h.Write([]byte{0})
		h.Write([]byte(sig.KeyID))
		h.Write([]byte{0})
		h.Write([]byte(sig.Sig))
	}
	keyIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		keyIDs = append(keyIDs, key.KeyID)
	}
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(keyIDs, ",")))
	return "verify:" + hex.EncodeToString(h.Sum(nil))
}
