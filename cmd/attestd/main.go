package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "attest":
		os.Exit(runAttest(os.Args[2:]))
	case "verify":
		os.Exit(runVerify(os.Args[2:]))
	case "keyid":
		os.Exit(runKeyID(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: attestd <serve|attest|verify|keyid> [flags]")
}
