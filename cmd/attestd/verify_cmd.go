package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"attestd/internal/domain"
	"attestd/internal/infra/crypto"
	"attestd/internal/infra/keys/soft"
	"attestd/internal/usecase"
	"attestd/pkg/provenance"
)

// Payload is the decoded statement bytes as signed, so fields beyond the
// modeled statement shape pass through untouched.
type verifyOutputDoc struct {
	Verified bool            `json:"verified"`
	KeyID    string          `json:"keyid"`
	Payload  json.RawMessage `json:"payload"`
}

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var inPath string
	var keyPath string
	var pubHex string
	var pubBase64 string
	var artifactSHA256 string
	fs.StringVar(&inPath, "in", "", "envelope JSON path")
	fs.StringVar(&keyPath, "key", "", "trust the public half of this private key PEM")
	fs.StringVar(&pubHex, "pubkey-hex", "", "trusted ed25519 public key hex")
	fs.StringVar(&pubBase64, "pubkey-base64", "", "trusted ed25519 public key base64")
	fs.StringVar(&artifactSHA256, "artifact-sha256", "", "expected subject sha256 digest")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(os.Stderr, "verify requires --in")
		return 1
	}

	envelopeBytes, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read envelope: %v\n", err)
		return 1
	}
	var envelope domain.Envelope
	if err := json.Unmarshal(envelopeBytes, &envelope); err != nil {
		fmt.Fprintf(os.Stderr, "decode envelope: %v\n", err)
		return 1
	}

	ring, err := buildVerifyRing(keyPath, pubHex, pubBase64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	verifyUC := &usecase.VerifyAttestation{
		Crypto: crypto.NewService(),
		Keys:   ring,
	}
	result, err := verifyUC.Execute(context.Background(), usecase.VerifyAttestationRequest{
		Envelope:       envelope,
		ExpectedSHA256: artifactSHA256,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify envelope: %v\n", err)
		return 1
	}

	payload, err := json.Marshal(verifyOutputDoc{
		Verified: true,
		KeyID:    result.KeyID,
		Payload:  result.Payload,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		return 1
	}
	if err := writeOutput("", payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func buildVerifyRing(keyPath, pubHex, pubBase64 string) (*soft.Ring, error) {
	sources := 0
	for _, set := range []bool{keyPath != "", pubHex != "", pubBase64 != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, errors.New("verify requires exactly one of --key, --pubkey-hex or --pubkey-base64")
	}

	var pub ed25519.PublicKey
	switch {
	case keyPath != "":
		raw, err := soft.PublicKeyBytes(keyPath)
		if err != nil {
			return nil, fmt.Errorf("load key: %w", err)
		}
		pub = ed25519.PublicKey(raw)
	case pubHex != "":
		parsed, err := provenance.ParseEd25519PublicKeyHex(pubHex)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		pub = parsed
	default:
		parsed, err := provenance.ParseEd25519PublicKeyBase64(pubBase64)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		pub = parsed
	}

	ring := soft.NewRing(nil)
	if err := ring.AddPublicKey(pub); err != nil {
		return nil, err
	}
	return ring, nil
}
