package specloader

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/named"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/object"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// scanMixins indexes the mixins among types by their target. Callers
// hold mu.
func (l *Loader) scanMixins(types []reflect.Type) {
	for _, t := range types {
		if t == nil {
			continue
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		a, ok := facets.AnnotationsOf(t)
		if !ok {
			continue
		}
		target, ok := object.MixinTarget(a.Object)
		if !ok || slices.Contains(l.mixins[target], t) {
			continue
		}
		l.mixins[target] = append(l.mixins[target], t)
	}
}

// prepareMixin assembles the contributed method of a mixin on the mixin's
// own holders. The action is not a member of the mixin; mixIn moves its
// facets onto the target.
func (l *Loader) prepareMixin(s *spec.Specification, class *facets.Class) error {
	mf, ok := facetapi.Lookup[*object.MixinFacet](s.Holder(), spec.MixinFacetType)
	if !ok {
		return nil
	}
	class.BindReceivers(mf.Instantiate)
	m, ok := class.Method(mf.Method)
	if !ok {
		l.ctx.Sink.OnFailure(s.Identifier(), fmt.Sprintf("mixin has no method %s", mf.Method))
		return nil
	}
	a, err := l.assembleAction(s, class, m, mf.Target())
	if err != nil {
		return err
	}
	l.mixinActions[s.Type()] = a
	return nil
}

// mixIn contributes the action of mixin type mt to target. The facets of
// the mixin action and its parameters are re-parented onto new holders of
// the target.
func (l *Loader) mixIn(target *spec.Specification, mt reflect.Type) error {
	ms := l.introspect(mt)
	source, ok := l.mixinActions[mt]
	if !ok {
		return nil
	}
	mf, _ := facetapi.Lookup[*object.MixinFacet](ms.Holder(), spec.MixinFacetType)

	id := mixinMemberID(target.Type(), mt, mf.Method)
	h := l.arena.NewHolder(target.Identifier().Member(id), facetapi.Action)
	if err := l.reparentAll(source.Holder(), h); err != nil {
		return err
	}
	if f, ok := facetapi.Lookup[*named.NamedFacet](h, named.FacetType); ok && f.IsDerived() {
		if _, err := h.RemoveFacet(named.FacetType); err != nil {
			return err
		}
		if _, err := h.AddFacet(named.Derived(facets.NaturalName(id))); err != nil {
			return err
		}
	}

	a := spec.NewAction(target, id, source.Method(), h)
	a.SetMixin(ms)
	if source.ReturnType() != nil {
		a.Resolve(source.Specification())
	}
	for _, p := range source.Parameters() {
		ph := l.arena.NewHolder(h.Identifier().Parameter(p.Index()), p.FeatureType())
		if err := l.reparentAll(p.Holder(), ph); err != nil {
			return err
		}
		np := spec.NewParameter(a, p.Index(), p.Type(), ph)
		np.Resolve(p.Specification())
		a.AddParameter(np)
	}
	target.AddAction(a)
	return nil
}

func (l *Loader) reparentAll(from, to *facetapi.Holder) error {
	var moving []facetapi.Facet
	for f := range from.Facets() {
		moving = append(moving, f)
	}
	for _, f := range moving {
		if _, err := l.arena.Reparent(f, to); err != nil {
			return err
		}
	}
	return nil
}

// mixinMemberID names a contributed action: the configured method name,
// or for the default method the mixin's type name less its target's
// prefix, e.g. ItemArchive contributes Archive to Item.
func mixinMemberID(target, mixin reflect.Type, method string) string {
	if method != "" && method != object.DefaultMixinMethod {
		return method
	}
	if id, ok := strings.CutPrefix(mixin.Name(), target.Name()); ok && id != "" {
		return id
	}
	return mixin.Name()
}
