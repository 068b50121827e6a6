package facetapi

import (
	"errors"
	"fmt"
)

// StructuralErrorKind classifies a structural failure.
type StructuralErrorKind int

const (
	// AliasCollision is an alias type clashing with another facet type or alias.
	AliasCollision StructuralErrorKind = iota
	// Sealed is an attempt to mutate a holder after publication.
	Sealed
	// MissingHolder is a facet referring to a holder the arena does not own.
	MissingHolder
	// InvalidFacet is a facet without a type or chained onto a different type.
	InvalidFacet
)

// String returns the string representation of a StructuralErrorKind
func (k StructuralErrorKind) String() string {
	switch k {
	case AliasCollision:
		return "alias collision"
	case Sealed:
		return "holder sealed"
	case MissingHolder:
		return "missing holder"
	case InvalidFacet:
		return "invalid facet"
	default:
		return "unknown"
	}
}

// StructuralError reports a metamodel that cannot be assembled. It is fatal
// for the load that raised it.
type StructuralError struct {
	Kind       StructuralErrorKind
	Identifier Identifier
	FacetType  FacetType
	Message    string
}

// Error implements the error interface
func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s [%s]: %s", e.Identifier, e.Kind, e.FacetType, e.Message)
}

// IsStructural reports whether err is, or wraps, a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// IsAliasCollision reports whether err is an alias collision.
func IsAliasCollision(err error) bool {
	var se *StructuralError
	return errors.As(err, &se) && se.Kind == AliasCollision
}
