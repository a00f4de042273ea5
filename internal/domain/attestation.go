package domain

import "time"

// Attestation is an issued provenance attestation as recorded by the store:
// the signed envelope together with the subject it speaks about.
type Attestation struct {
	ID            string
	KeyID         string
	PayloadType   string
	SubjectName   string
	SubjectSHA256 string
	Envelope      Envelope
	Statement     Statement
	CreatedAt     time.Time
}
