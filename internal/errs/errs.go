package errs

import "errors"

// Typed failures surfaced by the workflow and ticket engines. Handlers map
// these onto HTTP status codes; nothing else inspects error text.
var (
	// ErrNotFound: the referenced workflow instance or ticket does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized: the actor is not in the eligible set for the current
	// level or action.
	ErrUnauthorized = errors.New("actor not authorized for this action")

	// ErrAlreadyDecided: the instance is terminal, or the targeted chain link
	// has already been decided.
	ErrAlreadyDecided = errors.New("already decided")

	// ErrInvalidRequestType: no workflow rules are registered for the type.
	ErrInvalidRequestType = errors.New("invalid request type")

	// ErrNoEligibleApprovers: a chain level resolved to zero identities and
	// would be permanently unapprovable.
	ErrNoEligibleApprovers = errors.New("no eligible approvers for role")

	// ErrConcurrentModification: lost the version race on an atomic update.
	// Retried transparently (bounded) by the engines before being surfaced.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrInvalidTransition: a ticket operation was attempted from a status
	// that does not permit it.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrOverCapacity: the assignment target is at or over their concurrent
	// ticket ceiling and the caller did not force the assignment.
	ErrOverCapacity = errors.New("assignee over capacity")
)
