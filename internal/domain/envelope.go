package domain

// PayloadTypeInToto is the DSSE payload type for in-toto statements.
const PayloadTypeInToto = "application/vnd.in-toto+json"

// EnvelopeSignature is a single signature entry in a DSSE envelope.
// Sig is base64url without padding; KeyID is optional.
type EnvelopeSignature struct {
	KeyID string `json:"keyid,omitempty"`
	Sig   string `json:"sig"`
}

// Envelope is a DSSE envelope. Payload is base64url without padding and
// decodes to the exact canonical bytes that were signed.
type Envelope struct {
	PayloadType string              `json:"payloadType"`
	Payload     string              `json:"payload"`
	Signatures  []EnvelopeSignature `json:"signatures"`
}

// VerificationResult is the transient outcome of a successful envelope
// verification. Payload carries the decoded bytes; KeyID names the trusted
// key that validated a signature.
type VerificationResult struct {
	Payload []byte
	KeyID   string
}
