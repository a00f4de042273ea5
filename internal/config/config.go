// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr     string
	KeyPath        string
	BuilderID      string
	ServiceVersion string

	// TrustedPublicKeysHex lists additional raw ed25519 public keys
	// (hex) accepted during verification, in priority order after the
	// process's own key. Used across key rotations.
	TrustedPublicKeysHex []string

	// AcceptedPredicateTypes overrides the predicate types accepted on
	// the verify path. Empty means the built-in SLSA v1 set.
	AcceptedPredicateTypes []string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	VerifyCacheTTL time.Duration
}

func Load() Config {
	return Config{
		ListenAddr:             ":" + envOr("PORT", "8080"),
		KeyPath:                envOr("ATTESTATION_PRIVATE_KEY", "data/keys/ed25519_private.pem"),
		BuilderID:              envOr("SLSA_BUILDER_ID", "urn:builder:local:slsa-attestation-service"),
		ServiceVersion:         envOr("SERVICE_VERSION", "0.1.0"),
		TrustedPublicKeysHex:   envList("TRUSTED_PUBLIC_KEYS_HEX"),
		AcceptedPredicateTypes: envList("ACCEPTED_PREDICATE_TYPES"),
		DatabaseDSN:            os.Getenv("DATABASE_DSN"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envInt("REDIS_DB", 0),
		RateLimitRequests:      envInt("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindow:        envDuration("RATE_LIMIT_WINDOW", time.Minute),
		VerifyCacheTTL:         envDuration("VERIFY_CACHE_TTL", 5*time.Minute),
	}
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envList(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
