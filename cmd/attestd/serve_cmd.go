package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"attestd/internal/config"
	"attestd/internal/domain"
	"attestd/internal/infra/cachemem"
	"attestd/internal/infra/crypto"
	"attestd/internal/infra/db"
	httpinfra "attestd/internal/infra/http"
	"attestd/internal/infra/keys/soft"
	"attestd/internal/infra/ratelimit"
	"attestd/internal/usecase"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.Load()

	manager, err := soft.NewManager(cfg.KeyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize signing key: %v\n", err)
		return 1
	}
	ring := soft.NewRing(manager)
	for _, pubHex := range cfg.TrustedPublicKeysHex {
		if err := ring.AddPublicKeyHex(pubHex); err != nil {
			fmt.Fprintf(os.Stderr, "load trusted key: %v\n", err)
			return 1
		}
	}

	cryptoSvc := crypto.NewService()

	var store usecase.AttestationStore
	if cfg.DatabaseDSN != "" {
		conn, err := db.Open(cfg.DatabaseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			return 1
		}
		store = db.NewAttestationRepository(conn)
	}

	limiter, err := buildRateLimiter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize rate limiter: %v\n", err)
		return 1
	}

	generateUC := &usecase.GenerateProvenance{
		Crypto:         cryptoSvc,
		Signer:         manager,
		Store:          store,
		BuilderID:      cfg.BuilderID,
		ServiceVersion: cfg.ServiceVersion,
	}
	verifyUC := &usecase.VerifyAttestation{
		Crypto:                 cryptoSvc,
		Keys:                   ring,
		AcceptedPredicateTypes: cfg.AcceptedPredicateTypes,
		Cache:                  cachemem.New(),
		CacheTTL:               cfg.VerifyCacheTTL,
	}

	server := httpinfra.NewServer(httpinfra.ServerDeps{
		Generate:          generateUC,
		Verify:            verifyUC,
		Signer:            manager,
		Store:             store,
		RateLimiter:       limiter,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	log.Printf("attestd listening on %s (keyid %s)", cfg.ListenAddr, manager.KeyID())
	if err := server.Run(cfg.ListenAddr); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		return 1
	}
	return 0
}

func buildRateLimiter(cfg config.Config) (domain.RateLimiter, error) {
	if cfg.RateLimitRequests <= 0 {
		return nil, nil
	}
	if cfg.RedisAddr != "" {
		return ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
	}
	return ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{}), nil
}
