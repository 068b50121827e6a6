// Package facetapi defines facets, the holders they attach to and the arena
// that owns every holder of a metamodel.
package facetapi

import "strings"

// FeatureType identifies the kind of feature a holder describes.
type FeatureType int

const (
	Object FeatureType = iota
	Property
	Collection
	Action
	ActionParameterScalar
	ActionParameterCollection
)

// String returns the string representation of a FeatureType
func (f FeatureType) String() string {
	switch f {
	case Object:
		return "object"
	case Property:
		return "property"
	case Collection:
		return "collection"
	case Action:
		return "action"
	case ActionParameterScalar:
		return "parameter"
	case ActionParameterCollection:
		return "parameter_collection"
	default:
		return "unknown"
	}
}

// IsMember reports whether f is a property, collection or action.
func (f FeatureType) IsMember() bool {
	return f == Property || f == Collection || f == Action
}

// IsParameter reports whether f is an action parameter.
func (f FeatureType) IsParameter() bool {
	return f == ActionParameterScalar || f == ActionParameterCollection
}

// FeatureSet is a set of feature types a factory applies to.
type FeatureSet uint8

// NewFeatureSet returns the set of the given feature types.
func NewFeatureSet(types ...FeatureType) FeatureSet {
	var s FeatureSet
	for _, t := range types {
		s |= 1 << t
	}
	return s
}

// Predefined feature sets.
var (
	ObjectsOnly             = NewFeatureSet(Object)
	PropertiesOnly          = NewFeatureSet(Property)
	CollectionsOnly         = NewFeatureSet(Collection)
	ActionsOnly             = NewFeatureSet(Action)
	ParametersOnly          = NewFeatureSet(ActionParameterScalar, ActionParameterCollection)
	Members                 = NewFeatureSet(Property, Collection, Action)
	ObjectsAndActions       = NewFeatureSet(Object, Action)
	ObjectsAndProperties    = NewFeatureSet(Object, Property)
	PropertiesAndActions    = NewFeatureSet(Property, Action)
	PropertiesAndParameters = NewFeatureSet(Property, ActionParameterScalar, ActionParameterCollection)
	Everything              = NewFeatureSet(Object, Property, Collection, Action, ActionParameterScalar, ActionParameterCollection)
)

// Contains reports whether t is in the set.
func (s FeatureSet) Contains(t FeatureType) bool {
	return s&(1<<t) != 0
}

// Union returns the set of types in either s or other.
func (s FeatureSet) Union(other FeatureSet) FeatureSet {
	return s | other
}

// String lists the members of the set.
func (s FeatureSet) String() string {
	var names []string
	for t := Object; t <= ActionParameterCollection; t++ {
		if s.Contains(t) {
			names = append(names, t.String())
		}
	}
	return "[" + strings.Join(names, ",") + "]"
}
