package specloader

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// introspect returns the specification of the normalized type t, assembling
// it first if it is unknown. Callers hold mu.
func (l *Loader) introspect(t reflect.Type) *spec.Specification {
	if s, ok := l.specs[t]; ok {
		return s
	}

	name := l.logicalName(t)
	holder := l.arena.NewHolder(facetapi.ClassIdentifier(name), facetapi.Object)
	s := spec.New(t, name, holder, l)
	l.specs[t] = s
	l.pending = append(l.pending, s)

	if err := l.assemble(s); err != nil {
		l.errs = append(l.errs, fmt.Errorf("failed to introspect %s: %w", name, err))
	}
	s.SetState(spec.Introspected)
	l.logger.Debug("Introspected type", zap.String("type", name), zap.Stringer("sort", s.BeanSort()))
	return s
}

// assemble runs the class processors, then the property processors, then
// the action processors over the methods left as candidates. Supporting
// methods consumed by properties are gone by the time actions are found.
func (l *Loader) assemble(s *spec.Specification) error {
	t := s.Type()
	class := facets.NewClass(t, s.LogicalTypeName())
	if err := l.processor.ProcessClass(&facets.ProcessClassContext{Context: l.ctx, Class: class, Holder: s.Holder()}); err != nil {
		return err
	}
	s.SetBeanSort(beanSort(t, s.Holder()))

	switch {
	case s.IsValue():
		return nil
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		s.SetElementType(t.Elem())
		s.ResolveElement(l.introspect(l.normalize(t.Elem())))
		return nil
	case s.IsMixin():
		return l.prepareMixin(s, class)
	case t.Kind() != reflect.Struct:
		return nil
	}

	for _, field := range class.Fields {
		if err := l.assembleField(s, class, field); err != nil {
			return err
		}
	}
	for _, m := range class.Methods() {
		if _, ok := class.Method(m.Name); !ok || facets.IsSupportingMethod(m.Name) {
			continue
		}
		a, err := l.assembleAction(s, class, m, nil)
		if err != nil {
			return err
		}
		s.AddAction(a)
	}
	for _, mt := range l.mixins[t] {
		if err := l.mixIn(s, mt); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) assembleField(s *spec.Specification, class *facets.Class, field *facets.Field) error {
	ft := facetapi.Property
	if l.ctx.IsCollectionType(field.Type) {
		ft = facetapi.Collection
	}
	h := l.arena.NewHolder(s.Identifier().Member(field.Name), ft)
	err := l.processor.ProcessProperty(&facets.ProcessPropertyContext{
		Context:     l.ctx,
		Class:       class,
		Field:       field,
		Holder:      h,
		FeatureType: ft,
	})
	if err != nil {
		return err
	}

	if ft == facetapi.Collection {
		c := spec.NewCollection(s, field.StructField, h)
		s.AddCollection(c)
		c.Resolve(l.introspect(l.normalize(c.ElementType())))
		return nil
	}
	p := spec.NewProperty(s, field.StructField, h)
	s.AddProperty(p)
	p.Resolve(l.introspect(l.normalize(field.Type)))
	return nil
}

// assembleAction builds the action for m. A mixin action is assembled on
// the mixin's class, with mixinTarget naming the type it is for.
func (l *Loader) assembleAction(s *spec.Specification, class *facets.Class, m *facets.Method, mixinTarget reflect.Type) (*spec.Action, error) {
	class.RemoveMethod(m)
	h := l.arena.NewHolder(s.Identifier().Member(m.Name), facetapi.Action)
	annotation, annotated := class.ActionAnnotation(m.Name)
	err := l.processor.ProcessMethod(&facets.ProcessMethodContext{
		Context:     l.ctx,
		Class:       class,
		Method:      m,
		Holder:      h,
		Annotation:  annotation,
		Annotated:   annotated,
		MixinTarget: mixinTarget,
	})
	if err != nil {
		return nil, err
	}

	a := spec.NewAction(s, m.Name, spec.NewMethod(h.Identifier(), m.Method), h)
	for i, pt := range m.ParamTypes() {
		ft := facetapi.ActionParameterScalar
		elem := pt
		if l.ctx.IsCollectionType(pt) {
			ft = facetapi.ActionParameterCollection
			elem = pt.Elem()
		}
		ph := l.arena.NewHolder(h.Identifier().Parameter(i), ft)
		err := l.processor.ProcessParameter(&facets.ProcessParameterContext{
			Context:     l.ctx,
			Class:       class,
			Method:      m,
			Index:       i,
			Type:        pt,
			Holder:      ph,
			FeatureType: ft,
			Annotation:  annotation,
			Annotated:   annotated,
		})
		if err != nil {
			return nil, err
		}
		p := spec.NewParameter(a, i, pt, ph)
		a.AddParameter(p)
		p.Resolve(l.introspect(l.normalize(elem)))
	}
	if rt := a.ReturnType(); rt != nil {
		a.Resolve(l.introspect(l.normalize(rt)))
	}
	return a, nil
}

func beanSort(t reflect.Type, h *facetapi.Holder) spec.BeanSort {
	switch {
	case h.Contains(spec.ValueFacetType):
		return spec.SortValue
	case h.Contains(spec.EntityFacetType):
		return spec.SortEntity
	case h.Contains(spec.ViewModelFacetType):
		return spec.SortViewModel
	case h.Contains(spec.MixinFacetType):
		return spec.SortMixin
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		return spec.SortCollection
	case t.Kind() == reflect.Interface:
		return spec.SortAbstract
	default:
		return spec.SortUnknown
	}
}
