package facets

import (
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
)

// Factory contributes facets to the features it applies to. A factory
// implements one or more of the processor interfaces below.
type Factory interface {
	FeatureTypes() facetapi.FeatureSet
}

// ClassProcessor processes a type once.
type ClassProcessor interface {
	Factory
	ProcessClass(ctx *ProcessClassContext) error
}

// MethodProcessor processes each action candidate.
type MethodProcessor interface {
	Factory
	ProcessMethod(ctx *ProcessMethodContext) error
}

// PropertyProcessor processes each property and collection field.
type PropertyProcessor interface {
	Factory
	ProcessProperty(ctx *ProcessPropertyContext) error
}

// ParameterProcessor processes each action parameter.
type ParameterProcessor interface {
	Factory
	ProcessParameter(ctx *ProcessParameterContext) error
}

// Refinement is the part of the programming model a refiner may extend.
type Refinement interface {
	AddValidator(v validation.Validator)
}

// MetaModelRefiner is a factory that registers validators for the
// cross-cutting rules of its facets.
type MetaModelRefiner interface {
	RefineProgrammingModel(r Refinement)
}
