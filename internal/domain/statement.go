package domain

const (
	StatementType = "https://in-toto.io/Statement/v1"

	// PredicateSLSAProvenance is the predicate type emitted on the signing
	// path. Verification additionally accepts the legacy "/v1.0" spelling.
	PredicateSLSAProvenance       = "https://slsa.dev/provenance/v1"
	PredicateSLSAProvenanceLegacy = "https://slsa.dev/provenance/v1.0"
)

// DigestSet maps a hash algorithm name to its lowercase hex value.
// At least "sha256" must be present on every subject.
type DigestSet map[string]string

type Subject struct {
	Name   string    `json:"name"`
	Digest DigestSet `json:"digest"`
}

type Builder struct {
	ID      string            `json:"id"`
	Version map[string]string `json:"version,omitempty"`
}

type BuildMetadata struct {
	InvocationID string `json:"invocationId"`
	StartedOn    string `json:"startedOn,omitempty"`
	FinishedOn   string `json:"finishedOn,omitempty"`
}

type ResolvedDependency struct {
	URI    string    `json:"uri"`
	Digest DigestSet `json:"digest,omitempty"`
	Name   string    `json:"name,omitempty"`
}

type BuildDefinition struct {
	BuildType            string                `json:"buildType"`
	ExternalParameters   map[string]any        `json:"externalParameters"`
	InternalParameters   *map[string]any       `json:"internalParameters,omitempty"`
	ResolvedDependencies *[]ResolvedDependency `json:"resolvedDependencies,omitempty"`
}

type RunDetails struct {
	Builder    Builder       `json:"builder"`
	Metadata   BuildMetadata `json:"metadata"`
	Byproducts []any         `json:"byproducts"`
}

// Predicate is a SLSA v1 provenance predicate.
type Predicate struct {
	BuildDefinition BuildDefinition `json:"buildDefinition"`
	RunDetails      RunDetails      `json:"runDetails"`
}

// Statement is an in-toto v1 statement carrying a SLSA provenance predicate.
type Statement struct {
	Type          string    `json:"_type"`
	Subject       []Subject `json:"subject"`
	PredicateType string    `json:"predicateType"`
	Predicate     Predicate `json:"predicate"`
}

// SHA256 returns the sha256 digest of the subject, or "" if absent.
func (s Subject) SHA256() string {
	if s.Digest == nil {
		return ""
	}
	return s.Digest["sha256"]
}
