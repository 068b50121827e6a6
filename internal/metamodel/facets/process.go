package facets

import (
	"reflect"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
)

// ProcessClassContext is handed to class processors.
type ProcessClassContext struct {
	*Context
	Class  *Class
	Holder *facetapi.Holder
}

// AddFacet attaches f to the type's holder.
func (c *ProcessClassContext) AddFacet(f facetapi.Facet, opts ...facetapi.AddOption) error {
	_, err := c.Holder.AddFacet(f, opts...)
	return err
}

// ProcessMethodContext is handed to method processors for one action.
type ProcessMethodContext struct {
	*Context
	Class  *Class
	Method *Method
	Holder *facetapi.Holder
	// Annotation is the method's explicit action annotation, if Annotated.
	Annotation applib.ActionAnnotation
	Annotated  bool
	// MixinTarget is set when the method is contributed by a mixin.
	MixinTarget reflect.Type
}

// AddFacet attaches f to the action's holder.
func (c *ProcessMethodContext) AddFacet(f facetapi.Facet, opts ...facetapi.AddOption) error {
	_, err := c.Holder.AddFacet(f, opts...)
	return err
}

// MemberName is the name supporting methods refer to.
func (c *ProcessMethodContext) MemberName() string {
	return c.Method.Name
}

// ProcessPropertyContext is handed to property processors for one field.
type ProcessPropertyContext struct {
	*Context
	Class       *Class
	Field       *Field
	Holder      *facetapi.Holder
	FeatureType facetapi.FeatureType
}

// AddFacet attaches f to the property's holder.
func (c *ProcessPropertyContext) AddFacet(f facetapi.Facet, opts ...facetapi.AddOption) error {
	_, err := c.Holder.AddFacet(f, opts...)
	return err
}

// ProcessParameterContext is handed to parameter processors.
type ProcessParameterContext struct {
	*Context
	Class       *Class
	Method      *Method
	Index       int
	Type        reflect.Type
	Holder      *facetapi.Holder
	FeatureType facetapi.FeatureType
	// Annotation is the owning action's annotation, if Annotated.
	Annotation applib.ActionAnnotation
	Annotated  bool
}

// AddFacet attaches f to the parameter's holder.
func (c *ProcessParameterContext) AddFacet(f facetapi.Facet, opts ...facetapi.AddOption) error {
	_, err := c.Holder.AddFacet(f, opts...)
	return err
}
