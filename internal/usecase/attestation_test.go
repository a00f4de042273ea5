package usecase

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"attestd/internal/domain"
	"attestd/internal/infra/crypto"
)

type testSigner struct {
	priv  ed25519.PrivateKey
	pub   ed25519.PublicKey
	keyID string
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sum := sha256.Sum256(pub)
	return &testSigner{priv: priv, pub: pub, keyID: hex.EncodeToString(sum[:])}
}

func (s *testSigner) Sign(payload []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, payload), nil
}

func (s *testSigner) KeyID() string                { return s.keyID }
func (s *testSigner) PublicKey() ed25519.PublicKey { return s.pub }

type staticRing struct {
	keys []domain.TrustedKey
}

func (r *staticRing) TrustedKeys() []domain.TrustedKey { return r.keys }

type recordingStore struct {
	recorded []domain.Attestation
}

func (s *recordingStore) Record(_ context.Context, attestation domain.Attestation) error {
	s.recorded = append(s.recorded, attestation)
	return nil
}

func (s *recordingStore) GetByID(_ context.Context, id string) (domain.Attestation, error) {
	for _, attestation := range s.recorded {
		if attestation.ID == id {
			return attestation, nil
		}
	}
	return domain.Attestation{}, domain.ErrNotFound
}

func (s *recordingStore) ListBySubjectSHA256(_ context.Context, digest string) ([]domain.Attestation, error) {
	var out []domain.Attestation
	for _, attestation := range s.recorded {
		if attestation.SubjectSHA256 == digest {
			out = append(out, attestation)
		}
	}
	return out, nil
}

type countingCrypto struct {
	*crypto.Service
	verifications int
}

func (c *countingCrypto) VerifyEnvelope(env domain.Envelope, keys []domain.TrustedKey) (domain.VerificationResult, error) {
	c.verifications++
	return c.Service.VerifyEnvelope(env, keys)
}

const testDigest = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

func generateRequest() GenerateProvenanceRequest {
	return GenerateProvenanceRequest{
		Subjects: []domain.Subject{
			{Name: "app.bin", Digest: domain.DigestSet{"sha256": testDigest}},
		},
		BuildType: "https://example.com/build@v1",
	}
}

func newGenerate(signer *testSigner, store AttestationStore) *GenerateProvenance {
	return &GenerateProvenance{
		Crypto:         crypto.NewService(),
		Signer:         signer,
		Store:          store,
		BuilderID:      "urn:builder:local:slsa-attestation-service",
		ServiceVersion: "0.1.0",
	}
}

func TestGenerateVerify_EndToEnd(t *testing.T) {
	signer := newTestSigner(t)
	store := &recordingStore{}
	ctx := context.Background()

	envelope, err := newGenerate(signer, store).Execute(ctx, generateRequest())
	if err != nil {
		t.Fatalf("generate provenance: %v", err)
	}
	if envelope.PayloadType != domain.PayloadTypeInToto {
		t.Fatalf("payloadType = %q", envelope.PayloadType)
	}
	if len(envelope.Signatures) != 1 || envelope.Signatures[0].KeyID != signer.KeyID() {
		t.Fatalf("unexpected signatures: %+v", envelope.Signatures)
	}

	verify := &VerifyAttestation{
		Crypto: crypto.NewService(),
		Keys:   &staticRing{keys: []domain.TrustedKey{{KeyID: signer.KeyID(), PublicKey: signer.pub}}},
	}
	result, err := verify.Execute(ctx, VerifyAttestationRequest{
		Envelope:       envelope,
		ExpectedSHA256: testDigest,
	})
	if err != nil {
		t.Fatalf("verify attestation: %v", err)
	}
	if result.Statement.PredicateType != domain.PredicateSLSAProvenance {
		t.Fatalf("predicateType = %q", result.Statement.PredicateType)
	}
	if result.KeyID != signer.KeyID() {
		t.Fatalf("matched keyid = %q, want %q", result.KeyID, signer.KeyID())
	}

	// The released payload re-decodes to the exact statement that was signed.
	var statement domain.Statement
	if err := json.Unmarshal(result.Payload, &statement); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if statement.Subject[0].SHA256() != testDigest {
		t.Fatal("payload statement does not carry the subject digest")
	}

	if len(store.recorded) != 1 || store.recorded[0].SubjectSHA256 != testDigest {
		t.Fatalf("attestation was not recorded: %+v", store.recorded)
	}
}

func TestGenerateProvenance_RecordsEverySubject(t *testing.T) {
	signer := newTestSigner(t)
	store := &recordingStore{}
	ctx := context.Background()

	secondDigest := "cafebabecafebabecafebabecafebabecafebabecafebabecafebabecafebabe"
	req := generateRequest()
	req.Subjects = append(req.Subjects, domain.Subject{
		Name:   "app.sig",
		Digest: domain.DigestSet{"sha256": secondDigest},
	})

	if _, err := newGenerate(signer, store).Execute(ctx, req); err != nil {
		t.Fatalf("generate provenance: %v", err)
	}
	if len(store.recorded) != 2 {
		t.Fatalf("recorded %d rows, want one per subject", len(store.recorded))
	}

	// Lookup by the secondary subject's digest finds the envelope too.
	matches, err := store.ListBySubjectSHA256(ctx, secondDigest)
	if err != nil {
		t.Fatalf("list by digest: %v", err)
	}
	if len(matches) != 1 || matches[0].SubjectName != "app.sig" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if len(matches[0].Statement.Subject) != 2 {
		t.Fatal("recorded statement lost its subjects")
	}
}

func TestVerifyAttestation_DigestMismatch(t *testing.T) {
	signer := newTestSigner(t)
	ctx := context.Background()

	envelope, err := newGenerate(signer, nil).Execute(ctx, generateRequest())
	if err != nil {
		t.Fatalf("generate provenance: %v", err)
	}
	verify := &VerifyAttestation{
		Crypto: crypto.NewService(),
		Keys:   &staticRing{keys: []domain.TrustedKey{{KeyID: signer.KeyID(), PublicKey: signer.pub}}},
	}
	_, err = verify.Execute(ctx, VerifyAttestationRequest{
		Envelope:       envelope,
		ExpectedSHA256: "wrongdigest",
	})
	if !errors.Is(err, domain.ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
}

func TestVerifyAttestation_UntrustedKey(t *testing.T) {
	signer := newTestSigner(t)
	unrelated := newTestSigner(t)
	ctx := context.Background()

	envelope, err := newGenerate(signer, nil).Execute(ctx, generateRequest())
	if err != nil {
		t.Fatalf("generate provenance: %v", err)
	}
	verify := &VerifyAttestation{
		Crypto: crypto.NewService(),
		Keys:   &staticRing{keys: []domain.TrustedKey{{KeyID: unrelated.KeyID(), PublicKey: unrelated.pub}}},
	}
	_, err = verify.Execute(ctx, VerifyAttestationRequest{Envelope: envelope})
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyAttestation_PredicateTypes(t *testing.T) {
	signer := newTestSigner(t)
	ring := &staticRing{keys: []domain.TrustedKey{{KeyID: signer.KeyID(), PublicKey: signer.pub}}}
	ctx := context.Background()

	signStatement := func(t *testing.T, predicateType string) domain.Envelope {
		t.Helper()
		envelope, err := newGenerate(signer, nil).Execute(ctx, generateRequest())
		if err != nil {
			t.Fatalf("generate provenance: %v", err)
		}
		payload, err := base64.RawURLEncoding.DecodeString(envelope.Payload)
		if err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		var statement domain.Statement
		if err := json.Unmarshal(payload, &statement); err != nil {
			t.Fatalf("decode statement: %v", err)
		}
		statement.PredicateType = predicateType
		canonical, err := crypto.Canonicalize(statement)
		if err != nil {
			t.Fatalf("canonicalize: %v", err)
		}
		resigned, err := crypto.SignEnvelope(domain.PayloadTypeInToto, canonical, signer.priv, signer.KeyID())
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return resigned
	}

	verify := &VerifyAttestation{Crypto: crypto.NewService(), Keys: ring}

	if _, err := verify.Execute(ctx, VerifyAttestationRequest{Envelope: signStatement(t, domain.PredicateSLSAProvenanceLegacy)}); err != nil {
		t.Fatalf("legacy v1.0 predicate rejected: %v", err)
	}
	if _, err := verify.Execute(ctx, VerifyAttestationRequest{Envelope: signStatement(t, "https://slsa.dev/provenance/v0.2")}); !errors.Is(err, domain.ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema for unsupported predicate", err)
	}

	strict := &VerifyAttestation{
		Crypto:                 crypto.NewService(),
		Keys:                   ring,
		AcceptedPredicateTypes: []string{domain.PredicateSLSAProvenance},
	}
	if _, err := strict.Execute(ctx, VerifyAttestationRequest{Envelope: signStatement(t, domain.PredicateSLSAProvenanceLegacy)}); !errors.Is(err, domain.ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema when legacy spelling is not configured", err)
	}
}

func TestVerifyAttestation_CachesSuccess(t *testing.T) {
	signer := newTestSigner(t)
	ctx := context.Background()

	envelope, err := newGenerate(signer, nil).Execute(ctx, generateRequest())
	if err != nil {
		t.Fatalf("generate provenance: %v", err)
	}

	counting := &countingCrypto{Service: crypto.NewService()}
	verify := &VerifyAttestation{
		Crypto:   counting,
		Keys:     &staticRing{keys: []domain.TrustedKey{{KeyID: signer.KeyID(), PublicKey: signer.pub}}},
		Cache:    newMapCache(),
		CacheTTL: time.Minute,
	}
	for i := 0; i < 3; i++ {
		if _, err := verify.Execute(ctx, VerifyAttestationRequest{Envelope: envelope}); err != nil {
			t.Fatalf("verify %d: %v", i, err)
		}
	}
	if counting.verifications != 1 {
		t.Fatalf("crypto verifications = %d, want 1 (cached)", counting.verifications)
	}
}

type mapCache struct {
	entries map[string]domain.VerificationResult
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]domain.VerificationResult)}
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.VerificationResult, bool, error) {
	value, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &value, true, nil
}

func (c *mapCache) Put(_ context.Context, key string, value domain.VerificationResult, _ time.Duration) error {
	c.entries[key] = value
	return nil
}
