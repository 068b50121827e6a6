// Package facets runs the facet factory pipeline: it models the candidate
// members of a type and hands each feature to the factories of the
// programming model.
package facets

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/config"
	"github.com/conduit-lang/metamodel/internal/logging"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
	"github.com/conduit-lang/metamodel/internal/persistence"
)

// Context carries the collaborators factories and post-processors need.
type Context struct {
	Config *config.Config
	// Specs resolves specifications. Factories keep it for lazy lookups;
	// they must not resolve other types while processing.
	Specs      spec.SpecificationLoader
	Sink       validation.Sink
	Logger     *zap.Logger
	Store      persistence.Store
	Authorizer spec.Authorizer
	// IsValueType reports whether a type has value semantics.
	IsValueType func(reflect.Type) bool
}

// NewContext returns a context with a default configuration, a fresh
// validation report and a no-op logger.
func NewContext(specs spec.SpecificationLoader) *Context {
	return &Context{
		Config:      config.Default(),
		Specs:       specs,
		Sink:        validation.NewReport(),
		Logger:      logging.OrNop(nil),
		IsValueType: func(reflect.Type) bool { return false },
	}
}

// ValueType reports whether t, or the type t points to, has value semantics.
func (c *Context) ValueType(t reflect.Type) bool {
	if c.IsValueType == nil {
		return false
	}
	if c.IsValueType(t) {
		return true
	}
	return t.Kind() == reflect.Pointer && c.IsValueType(t.Elem())
}

// IsCollectionType reports whether t holds several domain objects rather
// than being a value.
func (c *Context) IsCollectionType(t reflect.Type) bool {
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return false
	}
	if c.ValueType(t) {
		return false
	}
	elem := t.Elem()
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	return elem.Kind() == reflect.Struct && !c.ValueType(elem)
}
