// Package persistence defines the entity store the metamodel binds entity
// types to.
package persistence

import (
	"context"

	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Store keeps entities. Implementations track the lifecycle state of every
// pojo they have seen, keyed by pointer identity.
type Store interface {
	// State reports the lifecycle state of pojo. Unknown pojos are transient.
	State(pojo any) spec.EntityState
	// Identify returns the identifier of a persisted pojo.
	Identify(pojo any) (string, bool)
	Load(ctx context.Context, s *spec.Specification, id string) (any, error)
	Query(ctx context.Context, s *spec.Specification, q spec.Query) ([]any, error)
	// Persist inserts a transient pojo or updates an attached one.
	Persist(ctx context.Context, s *spec.Specification, pojo any) error
	Delete(ctx context.Context, s *spec.Specification, pojo any) error
	// Refresh overwrites pojo with the stored state and returns the ids of
	// the properties whose unsaved changes were discarded.
	Refresh(ctx context.Context, s *spec.Specification, pojo any) ([]string, error)
	Detach(ctx context.Context, s *spec.Specification, pojo any) error
}
