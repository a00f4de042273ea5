package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"attestd/internal/domain"
	"attestd/pkg/provenance"
)

type GenerateProvenanceRequest struct {
	Subjects             []domain.Subject
	BuildType            string
	ExternalParameters   map[string]any
	InternalParameters   map[string]any
	ResolvedDependencies []domain.ResolvedDependency
	InvocationID         string
	StartedOn            string
	FinishedOn           string
}

// GenerateProvenance builds a SLSA provenance statement from caller-supplied
// build facts, canonicalizes it and signs it into a DSSE envelope with the
// process key. When a store is configured the issued attestation is
// recorded; storage failures do not fail the issuance.
type GenerateProvenance struct {
	Crypto         CryptoService
	Signer         domain.Signer
	Store          AttestationStore
	BuilderID      string
	ServiceVersion string
}

func (uc *GenerateProvenance) Execute(ctx context.Context, req GenerateProvenanceRequest) (domain.Envelope, error) {
	statement, err := provenance.BuildStatement(provenance.StatementInput{
		Subjects:             req.Subjects,
		BuildType:            req.BuildType,
		ExternalParameters:   req.ExternalParameters,
		InternalParameters:   req.InternalParameters,
		ResolvedDependencies: req.ResolvedDependencies,
		BuilderID:            uc.BuilderID,
		BuilderVersion:       map[string]string{"attestation-service": uc.ServiceVersion},
		InvocationID:         req.InvocationID,
		StartedOn:            req.StartedOn,
		FinishedOn:           req.FinishedOn,
	})
	if err != nil {
		return domain.Envelope{}, err
	}

	payload, err := uc.Crypto.CanonicalizeStatement(statement)
	if err != nil {
		return domain.Envelope{}, err
	}
	envelope, err := uc.Crypto.SignEnvelopeWith(domain.PayloadTypeInToto, payload, uc.Signer)
	if err != nil {
		return domain.Envelope{}, err
	}

	if uc.Store != nil {
		uc.recordAttestation(ctx, statement, envelope)
	}
	return envelope, nil
}

func (uc *GenerateProvenance) recordAttestation(ctx context.Context, statement domain.Statement, envelope domain.Envelope) {
	// One row per subject so lookups by any subject digest find the
	// envelope.
	now := time.Now().UTC()
	for _, subject := range statement.Subject {
		_ = uc.Store.Record(ctx, domain.Attestation{
			ID:            uuid.NewString(),
			KeyID:         uc.Signer.KeyID(),
			PayloadType:   envelope.PayloadType,
			SubjectName:   subject.Name,
			SubjectSHA256: subject.SHA256(),
			Envelope:      envelope,
			Statement:     statement,
			CreatedAt:     now,
		})
	}
}
