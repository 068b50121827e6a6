// Package progmodel assembles the programming model: the ordered facet
// factories, the post-processors and the validators a load runs.
package progmodel

import (
	"sync"

	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
)

// Order buckets factories. Within a bucket factories run in registration
// order.
type Order int

const (
	OrderEarly Order = iota
	OrderMiddle
	OrderLate
)

// String returns the string representation of an Order
func (o Order) String() string {
	switch o {
	case OrderEarly:
		return "early"
	case OrderMiddle:
		return "middle"
	case OrderLate:
		return "late"
	default:
		return "unknown"
	}
}

// PostProcessor refines a specification once every type of a load has
// been introspected.
type PostProcessor interface {
	PostProcess(ctx *facets.Context, s *spec.Specification) error
}

// PostProcessorFunc adapts a function to PostProcessor.
type PostProcessorFunc func(ctx *facets.Context, s *spec.Specification) error

// PostProcess implements PostProcessor
func (f PostProcessorFunc) PostProcess(ctx *facets.Context, s *spec.Specification) error {
	return f(ctx, s)
}

// ProgrammingModel holds what a load runs. It is built once and read
// concurrently afterwards.
type ProgrammingModel struct {
	mu             sync.Mutex
	buckets        [OrderLate + 1][]facets.Factory
	postProcessors []PostProcessor
	validators     []validation.Validator
	refine         sync.Once
}

// New creates an empty programming model.
func New() *ProgrammingModel {
	return &ProgrammingModel{}
}

// AddFactory registers f in bucket order.
func (m *ProgrammingModel) AddFactory(order Order, f facets.Factory) {
	if order < OrderEarly || order > OrderLate {
		order = OrderMiddle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[order] = append(m.buckets[order], f)
}

// AddPostProcessor registers p after the post-processors already present.
func (m *ProgrammingModel) AddPostProcessor(p PostProcessor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postProcessors = append(m.postProcessors, p)
}

// AddValidator implements facets.Refinement
func (m *ProgrammingModel) AddValidator(v validation.Validator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validators = append(m.validators, v)
}

// Factories returns the factories in execution order.
func (m *ProgrammingModel) Factories() []facets.Factory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []facets.Factory
	for _, bucket := range m.buckets {
		out = append(out, bucket...)
	}
	return out
}

// PostProcessors returns the post-processors in registration order.
func (m *ProgrammingModel) PostProcessors() []PostProcessor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PostProcessor(nil), m.postProcessors...)
}

// Validators returns the validators, refinements included once Refine ran.
func (m *ProgrammingModel) Validators() []validation.Validator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]validation.Validator(nil), m.validators...)
}

// Refine lets every refining factory register its validators. Only the
// first call has an effect.
func (m *ProgrammingModel) Refine() {
	m.refine.Do(func() {
		for _, f := range m.Factories() {
			if r, ok := f.(facets.MetaModelRefiner); ok {
				r.RefineProgrammingModel(m)
			}
		}
	})
}

// Processor returns a processor over the factories, refining the model
// first.
func (m *ProgrammingModel) Processor() *facets.Processor {
	m.Refine()
	return facets.NewProcessor(m.Factories())
}
