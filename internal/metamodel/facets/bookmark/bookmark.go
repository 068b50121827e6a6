// Package bookmark records whether objects and safe actions can be
// bookmarked, and checks that bookmarkable actions are safe.
package bookmark

import (
	"fmt"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/semantics"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
)

// FacetType is the type of BookmarkPolicyFacet
const FacetType facetapi.FacetType = "BookmarkPolicyFacet"

// BookmarkPolicyFacet holds the bookmark policy of an object or action.
type BookmarkPolicyFacet struct {
	facetapi.Base
	Policy applib.BookmarkPolicy
}

func (f *BookmarkPolicyFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["policy"] = f.Policy.String()
}

func newFacet(policy applib.BookmarkPolicy, opts ...facetapi.Option) *BookmarkPolicyFacet {
	return &BookmarkPolicyFacet{Base: facetapi.NewBase(FacetType, opts...), Policy: policy}
}

// BookmarkPolicyFacetFallbackFactory reads declared bookmark policies and
// defaults everything else to never.
type BookmarkPolicyFacetFallbackFactory struct{}

func (BookmarkPolicyFacetFallbackFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsAndActions
}

func (BookmarkPolicyFacetFallbackFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	return addPolicy(ctx.AddFacet, ctx.Class.Annotations.Object.Bookmarking)
}

func (BookmarkPolicyFacetFallbackFactory) ProcessMethod(ctx *facets.ProcessMethodContext) error {
	policy := applib.BookmarkNotSpecified
	if ctx.Annotated {
		policy = ctx.Annotation.Bookmarking
	}
	return addPolicy(ctx.AddFacet, policy)
}

func addPolicy(add func(facetapi.Facet, ...facetapi.AddOption) error, policy applib.BookmarkPolicy) error {
	if policy != applib.BookmarkNotSpecified {
		if err := add(newFacet(policy)); err != nil {
			return err
		}
	}
	return add(newFacet(applib.BookmarkNever, facetapi.AsFallback()))
}

// RefineProgrammingModel registers the check that bookmarkable actions are
// safe.
func (BookmarkPolicyFacetFallbackFactory) RefineProgrammingModel(r facets.Refinement) {
	r.AddValidator(SafeBookmarkValidator())
}

// SafeBookmarkValidator reports declared actions that are bookmarkable
// without explicitly safe semantics.
func SafeBookmarkValidator() validation.Validator {
	return validation.ValidatorFunc(func(s *spec.Specification, sink validation.Sink) {
		for _, a := range s.Actions() {
			h := a.Holder()
			policy, ok := facetapi.LookupNonFallback[*BookmarkPolicyFacet](h, FacetType)
			if !ok || policy.Policy == applib.BookmarkNever {
				continue
			}
			sem, ok := facetapi.LookupNonFallback[*semantics.ActionSemanticsFacet](h, semantics.FacetType)
			if ok && sem.Value.IsSafeInNature() {
				continue
			}
			sink.OnFailure(a.Identifier(), fmt.Sprintf(
				"%s: action is bookmarkable but action semantics are not explicitly indicated as being safe. "+
					"Either declare Semantics: applib.Safe or applib.SafeAndRequestCacheable, or remove Bookmarking.",
				a.Identifier()))
		}
	})
}
