// Package provenance builds in-toto statements carrying SLSA v1 provenance
// predicates and signs them into DSSE envelopes. Everything here is pure:
// no storage, no transport.
package provenance

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"attestd/internal/domain"
)

// StatementInput carries the build facts a statement is assembled from.
// Optional fields left zero are defaulted or omitted per SLSA v1.
type StatementInput struct {
	Subjects             []domain.Subject
	BuildType            string
	ExternalParameters   map[string]any
	InternalParameters   map[string]any
	ResolvedDependencies []domain.ResolvedDependency
	BuilderID            string
	BuilderVersion       map[string]string
	InvocationID         string
	StartedOn            string
	FinishedOn           string
}

// BuildStatement assembles an in-toto v1 statement. Defaults: a fresh
// UUIDv4 invocation id, and startedOn/finishedOn each set to now when not
// supplied. internalParameters and resolvedDependencies are omitted from
// the statement entirely when absent so the canonical bytes stay minimal.
func BuildStatement(input StatementInput) (domain.Statement, error) {
	if err := ValidateSubjects(input.Subjects); err != nil {
		return domain.Statement{}, err
	}
	if input.BuildType == "" {
		return domain.Statement{}, fmt.Errorf("%w: buildType is required", domain.ErrSchema)
	}
	if input.BuilderID == "" {
		return domain.Statement{}, fmt.Errorf("%w: builder id is required", domain.ErrSchema)
	}

	invocationID := input.InvocationID
	if invocationID == "" {
		invocationID = uuid.NewString()
	}

	// Each timestamp defaults independently so the statement always
	// carries both.
	now := time.Now().UTC().Format(time.RFC3339)
	startedOn := input.StartedOn
	if startedOn == "" {
		startedOn = now
	}
	finishedOn := input.FinishedOn
	if finishedOn == "" {
		finishedOn = now
	}

	externalParameters := input.ExternalParameters
	if externalParameters == nil {
		externalParameters = map[string]any{}
	}

	buildDef := domain.BuildDefinition{
		BuildType:          input.BuildType,
		ExternalParameters: externalParameters,
	}
	if input.InternalParameters != nil {
		internal := input.InternalParameters
		buildDef.InternalParameters = &internal
	}
	if input.ResolvedDependencies != nil {
		deps := input.ResolvedDependencies
		buildDef.ResolvedDependencies = &deps
	}

	return domain.Statement{
		Type:          domain.StatementType,
		Subject:       input.Subjects,
		PredicateType: domain.PredicateSLSAProvenance,
		Predicate: domain.Predicate{
			BuildDefinition: buildDef,
			RunDetails: domain.RunDetails{
				Builder: domain.Builder{
					ID:      input.BuilderID,
					Version: input.BuilderVersion,
				},
				Metadata: domain.BuildMetadata{
					InvocationID: invocationID,
					StartedOn:    startedOn,
					FinishedOn:   finishedOn,
				},
				Byproducts: []any{},
			},
		},
	}, nil
}

// ValidateSubjects checks the one-or-more-subjects invariant: every entry
// needs a name and a sha256 digest.
func ValidateSubjects(subjects []domain.Subject) error {
	if len(subjects) == 0 {
		return fmt.Errorf("%w: at least one subject is required", domain.ErrSchema)
	}
	for i, subject := range subjects {
		if subject.Name == "" {
			return fmt.Errorf("%w: subject[%d] name is required", domain.ErrSchema, i)
		}
		if subject.SHA256() == "" {
			return fmt.Errorf("%w: subject[%d] digest.sha256 is required", domain.ErrSchema, i)
		}
	}
	return nil
}
