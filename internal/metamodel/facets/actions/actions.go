// Package actions makes methods invocable and reads the supporting methods
// that default and validate their arguments.
package actions

import (
	"context"
	"fmt"
	"reflect"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Facet types contributed by this package
const (
	ParameterDefaultsFacetType facetapi.FacetType = "ActionParameterDefaultsFacet"
	ValidationFacetType        facetapi.FacetType = "ActionValidationFacet"
)

var stringType = reflect.TypeFor[string]()

type invocationFacet struct {
	facetapi.Base
	name string
}

// Invoke calls the action's method on target, or on a mixin instantiated
// for target when the action is mixed in. A nil result is the empty object
// of the declared return type; actions without one return the unspecified
// object.
func (f *invocationFacet) Invoke(ctx context.Context, action *spec.Action, target *spec.ManagedObject, args []*spec.ManagedObject) (*spec.ManagedObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, &spec.InvocationError{Identifier: action.Identifier(), Cause: err}
	}
	if action.IsMixedIn() && !spec.IsNullOrUnspecifiedOrEmpty(target) {
		mixin, err := instantiateMixin(action.Mixin(), target)
		if err != nil {
			return nil, &spec.InvocationError{Identifier: action.Identifier(), Cause: err}
		}
		target = mixin
	}

	result, err := spec.InvokeAutofit(action.Method(), target, args)
	if err != nil {
		return nil, err
	}

	loader := action.Owner().Loader()
	if isNil(result) {
		if action.ReturnType() == nil {
			return spec.Unspecified(), nil
		}
		return spec.Empty(loader.LoadSpecification(action.ReturnType())), nil
	}
	return spec.Adapt(loader, result), nil
}

func (f *invocationFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["method"] = f.name
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func instantiateMixin(s *spec.Specification, mixee *spec.ManagedObject) (*spec.ManagedObject, error) {
	mf, ok := facetapi.Lookup[spec.MixinFacet](s.Holder(), spec.MixinFacetType)
	if !ok {
		return nil, fmt.Errorf("%s is not a mixin", s.LogicalTypeName())
	}
	pojo, err := mf.Instantiate(mixee.Pojo())
	if err != nil {
		return nil, err
	}
	return spec.NewManagedObject(s, pojo), nil
}

// ActionInvocationFacetFactory makes every action invocable.
type ActionInvocationFacetFactory struct{}

func (ActionInvocationFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ActionsOnly
}

func (ActionInvocationFacetFactory) ProcessMethod(ctx *facets.ProcessMethodContext) error {
	return ctx.AddFacet(&invocationFacet{
		Base: facetapi.NewBase(spec.ActionInvocationFacetType),
		name: ctx.Method.Name,
	})
}

// DefaultsFacet proposes an argument for a parameter of target.
type DefaultsFacet interface {
	facetapi.Facet
	Default(target any) (any, bool)
}

type methodDefault struct {
	facetapi.Base
	method *facets.Method
}

func (f *methodDefault) Default(target any) (any, bool) {
	out, err := f.method.Call(target)
	if err != nil {
		return nil, false
	}
	return out[0].Interface(), true
}

func (f *methodDefault) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["method"] = f.method.Name
}

// DefaultOf asks the defaults facet of p for an argument.
func DefaultOf(p *spec.Parameter, target any) (any, bool) {
	f, ok := facetapi.Lookup[DefaultsFacet](p.Holder(), ParameterDefaultsFacetType)
	if !ok {
		return nil, false
	}
	return f.Default(target)
}

// ActionParameterDefaultsFacetFactory reads Default<N><Action>() T methods.
type ActionParameterDefaultsFacetFactory struct{}

func (ActionParameterDefaultsFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ParametersOnly
}

func (ActionParameterDefaultsFacetFactory) ProcessParameter(ctx *facets.ProcessParameterContext) error {
	name := facets.SupportingMethodName(facets.PrefixDefault, ctx.Index, ctx.Method.Name)
	m, ok := ctx.Class.TakeMethod(name, func(m *facets.Method) bool {
		return m.NumParams() == 0 && m.Returns(ctx.Type)
	})
	if !ok {
		return nil
	}
	return ctx.AddFacet(&methodDefault{Base: facetapi.NewBase(ParameterDefaultsFacetType), method: m})
}

// validateFacet rejects arguments through a Validate<Action> method. A
// non-empty result is the reason.
type validateFacet struct {
	facetapi.Base
	method *facets.Method
}

func (f *validateFacet) Invalidates(vc spec.ValidityContext) string {
	if spec.IsNullOrUnspecifiedOrEmpty(vc.Target) {
		return ""
	}
	args := make([]any, f.method.NumParams())
	for i := range args {
		if i < len(vc.Args) && vc.Args[i] != nil {
			args[i] = vc.Args[i].Pojo()
		}
	}
	out, err := f.method.Call(vc.Target.Pojo(), args...)
	if err != nil {
		return err.Error()
	}
	return out[0].String()
}

func (f *validateFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["method"] = f.method.Name
}

// ActionValidateFacetFactory reads Validate<Action>(args...) string methods
// whose parameters match the action's.
type ActionValidateFacetFactory struct{}

func (ActionValidateFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ActionsOnly
}

func (ActionValidateFacetFactory) ProcessMethod(ctx *facets.ProcessMethodContext) error {
	params := ctx.Method.ParamTypes()
	name := facets.SupportingMethodName(facets.PrefixValidate, -1, ctx.MemberName())
	m, ok := ctx.Class.TakeMethod(name, func(m *facets.Method) bool {
		if m.NumParams() != len(params) || !m.Returns(stringType) {
			return false
		}
		for i, pt := range params {
			if m.ParamType(i) != pt {
				return false
			}
		}
		return true
	})
	if !ok {
		return nil
	}
	return ctx.AddFacet(&validateFacet{Base: facetapi.NewBase(ValidationFacetType), method: m})
}
