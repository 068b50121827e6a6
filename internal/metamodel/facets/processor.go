package facets

import (
	"fmt"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
)

// Processor runs the factories of a programming model. The factories
// applicable to each feature type are computed once.
type Processor struct {
	classProcessors     []ClassProcessor
	methodProcessors    []MethodProcessor
	propertyProcessors  map[facetapi.FeatureType][]PropertyProcessor
	parameterProcessors map[facetapi.FeatureType][]ParameterProcessor
}

// NewProcessor indexes factories, which must already be in execution order.
func NewProcessor(factories []Factory) *Processor {
	p := &Processor{
		propertyProcessors:  make(map[facetapi.FeatureType][]PropertyProcessor),
		parameterProcessors: make(map[facetapi.FeatureType][]ParameterProcessor),
	}
	for _, f := range factories {
		types := f.FeatureTypes()
		if cp, ok := f.(ClassProcessor); ok && types.Contains(facetapi.Object) {
			p.classProcessors = append(p.classProcessors, cp)
		}
		if mp, ok := f.(MethodProcessor); ok && types.Contains(facetapi.Action) {
			p.methodProcessors = append(p.methodProcessors, mp)
		}
		if pp, ok := f.(PropertyProcessor); ok {
			for _, ft := range []facetapi.FeatureType{facetapi.Property, facetapi.Collection} {
				if types.Contains(ft) {
					p.propertyProcessors[ft] = append(p.propertyProcessors[ft], pp)
				}
			}
		}
		if pp, ok := f.(ParameterProcessor); ok {
			for _, ft := range []facetapi.FeatureType{facetapi.ActionParameterScalar, facetapi.ActionParameterCollection} {
				if types.Contains(ft) {
					p.parameterProcessors[ft] = append(p.parameterProcessors[ft], pp)
				}
			}
		}
	}
	return p
}

// ProcessClass runs the class processors.
func (p *Processor) ProcessClass(ctx *ProcessClassContext) error {
	for _, f := range p.classProcessors {
		if err := f.ProcessClass(ctx); err != nil {
			return wrap(ctx.Holder, f, err)
		}
	}
	return nil
}

// ProcessMethod runs the method processors for one action.
func (p *Processor) ProcessMethod(ctx *ProcessMethodContext) error {
	for _, f := range p.methodProcessors {
		if err := f.ProcessMethod(ctx); err != nil {
			return wrap(ctx.Holder, f, err)
		}
	}
	return nil
}

// ProcessProperty runs the property processors for ctx.FeatureType.
func (p *Processor) ProcessProperty(ctx *ProcessPropertyContext) error {
	for _, f := range p.propertyProcessors[ctx.FeatureType] {
		if err := f.ProcessProperty(ctx); err != nil {
			return wrap(ctx.Holder, f, err)
		}
	}
	return nil
}

// ProcessParameter runs the parameter processors for ctx.FeatureType.
func (p *Processor) ProcessParameter(ctx *ProcessParameterContext) error {
	for _, f := range p.parameterProcessors[ctx.FeatureType] {
		if err := f.ProcessParameter(ctx); err != nil {
			return wrap(ctx.Holder, f, err)
		}
	}
	return nil
}

func wrap(h *facetapi.Holder, f Factory, err error) error {
	return fmt.Errorf("%s: %T: %w", h.Identifier(), f, err)
}
