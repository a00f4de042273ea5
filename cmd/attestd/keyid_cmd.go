package main

import (
	"flag"
	"fmt"
	"os"

	"attestd/internal/infra/keys/soft"
	"attestd/pkg/provenance"
)

func runKeyID(args []string) int {
	fs := flag.NewFlagSet("keyid", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var keyPath string
	var pubHex string
	fs.StringVar(&keyPath, "key", "", "ed25519 private key PEM path")
	fs.StringVar(&pubHex, "pubkey-hex", "", "ed25519 public key hex")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if (keyPath == "" && pubHex == "") || (keyPath != "" && pubHex != "") {
		fmt.Fprintln(os.Stderr, "keyid requires exactly one of --key or --pubkey-hex")
		return 1
	}

	var pub []byte
	if keyPath != "" {
		raw, err := soft.PublicKeyBytes(keyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load key: %v\n", err)
			return 1
		}
		pub = raw
	} else {
		parsed, err := provenance.ParseEd25519PublicKeyHex(pubHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse public key: %v\n", err)
			return 1
		}
		pub = parsed
	}

	fmt.Fprintln(os.Stdout, soft.KeyIDFromPublic(pub))
	return 0
}
