package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors with user-facing
// codes.
//
// These represent factual states about stored entities, not validation
// failures:
// - ErrNotFound: entity does not exist in the store
// - ErrConflict: a uniqueness constraint rejected the write (duplicate
//   registration, certificate already issued, validation-code collision)
//
// A constraint violation surfaces as ErrConflict whether or not the
// cooperative pre-check ran; under concurrency the constraint is the
// authority.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
