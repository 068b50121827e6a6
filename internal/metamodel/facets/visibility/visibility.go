// Package visibility hides and disables members, statically or per object.
package visibility

import (
	"reflect"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Facet types contributed by this package
const (
	HiddenFacetType            facetapi.FacetType = "HiddenFacet"
	HideForContextFacetType    facetapi.FacetType = "HideForContextFacet"
	DisabledFacetType          facetapi.FacetType = "DisabledFacet"
	DisableForContextFacetType facetapi.FacetType = "DisableForContextFacet"
	AuthorizationFacetType     facetapi.FacetType = "AuthorizationFacet"
)

const (
	hiddenReason        = "hidden"
	disabledReason      = "disabled"
	notAuthorizedReason = "not authorized"
)

var (
	boolType   = reflect.TypeFor[bool]()
	stringType = reflect.TypeFor[string]()
)

// HiddenFacet hides a member wherever its Where applies.
type HiddenFacet struct {
	facetapi.Base
	Where applib.Where
}

func (f *HiddenFacet) Hides(vc spec.VisibilityContext) string {
	where := vc.Where
	if where == applib.WhereNotSpecified {
		where = applib.Everywhere
	}
	if f.Where.Includes(where) {
		return hiddenReason
	}
	return ""
}

func (f *HiddenFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["where"] = int(f.Where)
}

// hideForContextFacet asks the object through its Hide<Member> method.
type hideForContextFacet struct {
	facetapi.Base
	method *facets.Method
}

func (f *hideForContextFacet) Hides(vc spec.VisibilityContext) string {
	if vc.Target == nil || vc.Target.Pojo() == nil {
		return ""
	}
	out, err := f.method.Call(vc.Target.Pojo())
	if err != nil || !out[0].Bool() {
		return ""
	}
	return hiddenReason
}

func (f *hideForContextFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["method"] = f.method.Name
}

// HiddenFacetFactory hides members declared hidden by tag or annotation,
// or whose Hide<Member> method says so.
type HiddenFacetFactory struct{}

func (HiddenFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.Members
}

func (HiddenFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	if ctx.Field.Tag.Has("hidden") {
		if err := ctx.AddFacet(newHidden(applib.ParseWhere(ctx.Field.Tag.Get("hidden")))); err != nil {
			return err
		}
	}
	return addHideMethod(ctx.Class, ctx.Field.Name, ctx.AddFacet)
}

func (HiddenFacetFactory) ProcessMethod(ctx *facets.ProcessMethodContext) error {
	if ctx.Annotated && ctx.Annotation.Hidden != applib.WhereNotSpecified {
		if err := ctx.AddFacet(newHidden(ctx.Annotation.Hidden)); err != nil {
			return err
		}
	}
	return addHideMethod(ctx.Class, ctx.MemberName(), ctx.AddFacet)
}

func newHidden(where applib.Where) *HiddenFacet {
	return &HiddenFacet{Base: facetapi.NewBase(HiddenFacetType), Where: where}
}

func addHideMethod(c *facets.Class, member string, add func(facetapi.Facet, ...facetapi.AddOption) error) error {
	m, ok := c.TakeMethod(facets.SupportingMethodName(facets.PrefixHide, -1, member), func(m *facets.Method) bool {
		return m.NumParams() == 0 && m.Returns(boolType)
	})
	if !ok {
		return nil
	}
	return add(&hideForContextFacet{Base: facetapi.NewBase(HideForContextFacetType), method: m})
}

// DisabledFacet disables a member for every object.
type DisabledFacet struct {
	facetapi.Base
	Reason string
}

func (f *DisabledFacet) Disables(spec.UsabilityContext) string {
	if f.Reason == "" {
		return disabledReason
	}
	return f.Reason
}

func (f *DisabledFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["reason"] = f.Reason
}

// disableForContextFacet asks the object through its Disable<Member> method.
// A non-empty result is the reason.
type disableForContextFacet struct {
	facetapi.Base
	method *facets.Method
}

func (f *disableForContextFacet) Disables(uc spec.UsabilityContext) string {
	if uc.Target == nil || uc.Target.Pojo() == nil {
		return ""
	}
	out, err := f.method.Call(uc.Target.Pojo())
	if err != nil {
		return ""
	}
	return out[0].String()
}

func (f *disableForContextFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["method"] = f.method.Name
}

// DisabledFacetFactory disables members tagged disabled or whose
// Disable<Member> method returns a reason.
type DisabledFacetFactory struct{}

func (DisabledFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.Members
}

func (DisabledFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	if ctx.Field.Tag.Has("disabled") {
		f := &DisabledFacet{Base: facetapi.NewBase(DisabledFacetType), Reason: ctx.Field.Tag.Get("disabled")}
		if err := ctx.AddFacet(f); err != nil {
			return err
		}
	}
	return addDisableMethod(ctx.Class, ctx.Field.Name, ctx.AddFacet)
}

func (DisabledFacetFactory) ProcessMethod(ctx *facets.ProcessMethodContext) error {
	return addDisableMethod(ctx.Class, ctx.MemberName(), ctx.AddFacet)
}

func addDisableMethod(c *facets.Class, member string, add func(facetapi.Facet, ...facetapi.AddOption) error) error {
	m, ok := c.TakeMethod(facets.SupportingMethodName(facets.PrefixDisable, -1, member), func(m *facets.Method) bool {
		return m.NumParams() == 0 && m.Returns(stringType)
	})
	if !ok {
		return nil
	}
	return add(&disableForContextFacet{Base: facetapi.NewBase(DisableForContextFacetType), method: m})
}

// authorizationFacet defers to the configured Authorizer.
type authorizationFacet struct {
	facetapi.Base
	authorizer spec.Authorizer
}

func (f *authorizationFacet) Hides(vc spec.VisibilityContext) string {
	if f.authorizer.IsVisible(vc.Identifier, vc.Target) {
		return ""
	}
	return notAuthorizedReason
}

func (f *authorizationFacet) Disables(uc spec.UsabilityContext) string {
	if f.authorizer.IsUsable(uc.Identifier, uc.Target) {
		return ""
	}
	return notAuthorizedReason
}

// AuthorizationFacetFactory guards objects and members with the context's
// Authorizer, when one is configured.
type AuthorizationFacetFactory struct{}

func (AuthorizationFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly.Union(facetapi.Members)
}

func (AuthorizationFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	if ctx.Authorizer == nil {
		return nil
	}
	return ctx.AddFacet(&authorizationFacet{Base: facetapi.NewBase(AuthorizationFacetType), authorizer: ctx.Authorizer})
}

func (AuthorizationFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	if ctx.Authorizer == nil {
		return nil
	}
	return ctx.AddFacet(&authorizationFacet{Base: facetapi.NewBase(AuthorizationFacetType), authorizer: ctx.Authorizer})
}

func (AuthorizationFacetFactory) ProcessMethod(ctx *facets.ProcessMethodContext) error {
	if ctx.Authorizer == nil {
		return nil
	}
	return ctx.AddFacet(&authorizationFacet{Base: facetapi.NewBase(AuthorizationFacetType), authorizer: ctx.Authorizer})
}
