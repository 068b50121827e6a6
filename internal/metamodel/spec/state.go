package spec

// EntityState is the lifecycle state of a persistable object.
type EntityState int

const (
	NotPersistable EntityState = iota
	Transient
	Attached
	Detached
	Destroyed
)

// String returns the string representation of an EntityState
func (s EntityState) String() string {
	switch s {
	case Transient:
		return "transient"
	case Attached:
		return "attached"
	case Detached:
		return "detached"
	case Destroyed:
		return "destroyed"
	default:
		return "not_persistable"
	}
}

func (s EntityState) IsPersistable() bool { return s != NotPersistable }
func (s EntityState) IsTransient() bool   { return s == Transient }
func (s EntityState) IsAttached() bool    { return s == Attached }
func (s EntityState) IsDetached() bool    { return s == Detached }
func (s EntityState) IsDestroyed() bool   { return s == Destroyed }

// EntityStatePredicate reports the state of a pojo. It is supplied by the
// persistence layer.
type EntityStatePredicate func(pojo any) EntityState

// InteractionInitiatedBy tells whether an end user or the framework itself
// triggered an interaction.
type InteractionInitiatedBy int

const (
	User InteractionInitiatedBy = iota
	Framework
)

// String returns the string representation of an InteractionInitiatedBy
func (i InteractionInitiatedBy) String() string {
	if i == Framework {
		return "framework"
	}
	return "user"
}
