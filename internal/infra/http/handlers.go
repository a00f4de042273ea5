package http

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"attestd/internal/domain"
	"attestd/internal/usecase"
)

type subjectDoc struct {
	Name   string            `json:"name"`
	Digest map[string]string `json:"digest"`
}

type provenanceRequest struct {
	Subject              []subjectDoc                `json:"subject"`
	BuildType            string                      `json:"buildType"`
	ExternalParameters   map[string]any              `json:"externalParameters"`
	InternalParameters   map[string]any              `json:"internalParameters"`
	ResolvedDependencies []domain.ResolvedDependency `json:"resolvedDependencies"`
	InvocationID         string                      `json:"invocationId"`
	StartedOn            string                      `json:"startedOn"`
	FinishedOn           string                      `json:"finishedOn"`
}

type verifyRequest struct {
	Envelope *domain.Envelope `json:"envelope"`
	Artifact *artifactDoc     `json:"artifact"`
}

type artifactDoc struct {
	Digest map[string]string `json:"digest"`
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"keyid": s.signer.KeyID(),
		"publicKey": gin.H{
			"raw":       hex.EncodeToString(s.signer.PublicKey()),
			"algorithm": "ed25519",
		},
	})
}

func (s *Server) handleGenerateProvenance(c *gin.Context) {
	if !s.enforceRateLimit(c, "attestations:provenance") {
		return
	}
	var req provenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Subject) == 0 {
		writeError(c, http.StatusBadRequest, "subject must be a non-empty list")
		return
	}
	subjects := make([]domain.Subject, 0, len(req.Subject))
	for _, doc := range req.Subject {
		if doc.Name == "" || doc.Digest == nil {
			writeError(c, http.StatusBadRequest, "each subject must have name and digest")
			return
		}
		if doc.Digest["sha256"] == "" {
			writeError(c, http.StatusBadRequest, "subject.digest must include sha256")
			return
		}
		subjects = append(subjects, domain.Subject{Name: doc.Name, Digest: doc.Digest})
	}
	if req.BuildType == "" {
		writeError(c, http.StatusBadRequest, "buildType is required (string)")
		return
	}

	envelope, err := s.generate.Execute(c.Request.Context(), usecase.GenerateProvenanceRequest{
		Subjects:             subjects,
		BuildType:            req.BuildType,
		ExternalParameters:   req.ExternalParameters,
		InternalParameters:   req.InternalParameters,
		ResolvedDependencies: req.ResolvedDependencies,
		InvocationID:         req.InvocationID,
		StartedOn:            req.StartedOn,
		FinishedOn:           req.FinishedOn,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSchema) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, "attestation signing failed")
		return
	}
	c.JSON(http.StatusOK, envelope)
}

func (s *Server) handleVerify(c *gin.Context) {
	if !s.enforceRateLimit(c, "attestations:verify") {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Envelope == nil {
		writeError(c, http.StatusBadRequest, "envelope is required")
		return
	}
	expectedSHA256 := ""
	if req.Artifact != nil {
		if req.Artifact.Digest == nil || req.Artifact.Digest["sha256"] == "" {
			writeError(c, http.StatusBadRequest, "artifact must include digest.sha256 if provided")
			return
		}
		expectedSHA256 = req.Artifact.Digest["sha256"]
	}

	result, err := s.verify.Execute(c.Request.Context(), usecase.VerifyAttestationRequest{
		Envelope:       *req.Envelope,
		ExpectedSHA256: expectedSHA256,
	})
	if err != nil {
		// Content-integrity failure, not an authentication decision:
		// 400 rather than 401/403.
		c.JSON(http.StatusBadRequest, gin.H{"verified": false, "error": err.Error()})
		return
	}
	// The raw decoded payload goes back out, not the re-marshaled typed
	// statement: foreign producers may carry fields beyond the modeled
	// shape and those must survive verification.
	c.JSON(http.StatusOK, gin.H{
		"verified": true,
		"keyid":    result.KeyID,
		"payload":  json.RawMessage(result.Payload),
	})
}

func (s *Server) handleListAttestations(c *gin.Context) {
	if s.store == nil {
		writeError(c, http.StatusServiceUnavailable, "attestation store not configured")
		return
	}
	digest := c.Query("subjectSha256")
	if digest == "" {
		writeError(c, http.StatusBadRequest, "subjectSha256 query parameter is required")
		return
	}
	attestations, err := s.store.ListBySubjectSHA256(c.Request.Context(), digest)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "attestation lookup failed")
		return
	}
	out := make([]gin.H, 0, len(attestations))
	for _, attestation := range attestations {
		out = append(out, gin.H{
			"id":            attestation.ID,
			"keyid":         attestation.KeyID,
			"subjectName":   attestation.SubjectName,
			"subjectSha256": attestation.SubjectSHA256,
			"createdAt":     attestation.CreatedAt,
			"envelope":      attestation.Envelope,
		})
	}
	c.JSON(http.StatusOK, gin.H{"attestations": out})
}

func (s *Server) handleGetAttestation(c *gin.Context) {
	if s.store == nil {
		writeError(c, http.StatusServiceUnavailable, "attestation store not configured")
		return
	}
	attestation, err := s.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(c, http.StatusNotFound, "attestation not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "attestation lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       attestation.ID,
		"keyid":    attestation.KeyID,
		"envelope": attestation.Envelope,
	})
}
