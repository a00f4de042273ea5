// Package http exposes the attestation service over HTTP. Handlers parse
// and validate request bodies, invoke the use cases and map sentinel errors
// to status codes; all cryptographic work happens below this layer.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attestd/internal/domain"
	"attestd/internal/usecase"
)

type Server struct {
	engine *gin.Engine

	generate *usecase.GenerateProvenance
	verify   *usecase.VerifyAttestation
	signer   domain.Signer
	store    usecase.AttestationStore

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

type ServerDeps struct {
	Generate *usecase.GenerateProvenance
	Verify   *usecase.VerifyAttestation
	Signer   domain.Signer
	Store    usecase.AttestationStore

	RateLimiter       domain.RateLimiter
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		engine:            gin.Default(),
		generate:          deps.Generate,
		verify:            deps.Verify,
		signer:            deps.Signer,
		store:             deps.Store,
		rateLimiter:       deps.RateLimiter,
		rateLimitRequests: deps.RateLimitRequests,
		rateLimitWindow:   deps.RateLimitWindow,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/keys/public", s.handlePublicKey)
	s.engine.POST("/attestations/provenance", s.handleGenerateProvenance)
	s.engine.POST("/attestations/verify", s.handleVerify)
	s.engine.GET("/attestations", s.handleListAttestations)
	s.engine.GET("/attestations/:id", s.handleGetAttestation)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
