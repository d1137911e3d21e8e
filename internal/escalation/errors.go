package escalation

import "errors"

var (
	// ErrBadData marks a request that violates the engine's input contract,
	// e.g. a rule without a policy or an incident-created trigger without an
	// incident ID. Callers should not retry.
	ErrBadData = errors.New("bad data")

	// ErrNotFound marks a missing rule, policy or team.
	ErrNotFound = errors.New("not found")
)
