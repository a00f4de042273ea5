package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"attestd/internal/config"
	"attestd/internal/domain"
	"attestd/internal/infra/keys/soft"
	"attestd/pkg/provenance"
)

type attestRequestDoc struct {
	Subject              []domain.Subject            `json:"subject"`
	BuildType            string                      `json:"buildType"`
	ExternalParameters   map[string]any              `json:"externalParameters"`
	InternalParameters   map[string]any              `json:"internalParameters"`
	ResolvedDependencies []domain.ResolvedDependency `json:"resolvedDependencies"`
	InvocationID         string                      `json:"invocationId"`
	StartedOn            string                      `json:"startedOn"`
	FinishedOn           string                      `json:"finishedOn"`
}

func runAttest(args []string) int {
	fs := flag.NewFlagSet("attest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var keyPath string
	var inPath string
	var outPath string
	fs.StringVar(&keyPath, "key", "", "ed25519 private key PEM path (default from environment)")
	fs.StringVar(&inPath, "in", "", "build facts JSON path")
	fs.StringVar(&outPath, "out", "", "output envelope path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(os.Stderr, "attest requires --in")
		return 1
	}
	cfg := config.Load()
	if keyPath == "" {
		keyPath = cfg.KeyPath
	}

	input, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read build facts: %v\n", err)
		return 1
	}
	var doc attestRequestDoc
	if err := json.Unmarshal(input, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "decode build facts: %v\n", err)
		return 1
	}

	manager, err := soft.NewManager(keyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load signing key: %v\n", err)
		return 1
	}

	statement, err := provenance.BuildStatement(provenance.StatementInput{
		Subjects:             doc.Subject,
		BuildType:            doc.BuildType,
		ExternalParameters:   doc.ExternalParameters,
		InternalParameters:   doc.InternalParameters,
		ResolvedDependencies: doc.ResolvedDependencies,
		BuilderID:            cfg.BuilderID,
		BuilderVersion:       map[string]string{"attestation-service": cfg.ServiceVersion},
		InvocationID:         doc.InvocationID,
		StartedOn:            doc.StartedOn,
		FinishedOn:           doc.FinishedOn,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build statement: %v\n", err)
		return 1
	}

	envelope, _, err := provenance.SignStatement(statement, manager.PrivateKey(), manager.KeyID())
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign statement: %v\n", err)
		return 1
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode envelope: %v\n", err)
		return 1
	}
	if err := writeOutput(outPath, payload); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
