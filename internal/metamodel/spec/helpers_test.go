package spec

import (
	"context"
	"reflect"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
)

type fakeLoader struct {
	arena *facetapi.Arena
	specs map[reflect.Type]*Specification
	sorts map[reflect.Type]BeanSort
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		arena: facetapi.NewArena(),
		specs: map[reflect.Type]*Specification{},
		sorts: map[reflect.Type]BeanSort{},
	}
}

func (l *fakeLoader) LoadSpecification(t reflect.Type) *Specification {
	t = derefType(t)
	if s, ok := l.specs[t]; ok {
		return s
	}
	name := LogicalTypeName(t)
	s := New(t, name, l.arena.NewHolder(facetapi.ClassIdentifier(name), facetapi.Object), l)
	s.SetBeanSort(l.sorts[t])
	if t.Kind() == reflect.Slice {
		s.SetBeanSort(SortCollection)
		s.SetElementType(t.Elem())
	}
	l.specs[t] = s
	return s
}

func (l *fakeLoader) SpecificationByName(name string) (*Specification, bool) {
	for _, s := range l.specs {
		if s.LogicalTypeName() == name {
			return s, true
		}
	}
	return nil, false
}

func (l *fakeLoader) spec(v any, sort BeanSort) *Specification {
	t := derefType(reflect.TypeOf(v))
	l.sorts[t] = sort
	return l.LoadSpecification(t)
}

type fakeEntityFacet struct {
	facetapi.Base
	states map[any]EntityState
	ids    map[any]string
	loaded map[string]any
}

func newFakeEntityFacet() *fakeEntityFacet {
	return &fakeEntityFacet{
		Base:   facetapi.NewBase(EntityFacetType),
		states: map[any]EntityState{},
		ids:    map[any]string{},
		loaded: map[string]any{},
	}
}

func (f *fakeEntityFacet) EntityState(pojo any) EntityState {
	if s, ok := f.states[pojo]; ok {
		return s
	}
	return Transient
}

func (f *fakeEntityFacet) Identify(pojo any) (string, bool) {
	id, ok := f.ids[pojo]
	return id, ok
}

func (f *fakeEntityFacet) Load(_ context.Context, id string) (any, error) {
	if pojo, ok := f.loaded[id]; ok {
		return pojo, nil
	}
	return nil, ErrObjectNotFound
}

func (f *fakeEntityFacet) Query(context.Context, Query) ([]any, error)      { return nil, nil }
func (f *fakeEntityFacet) Persist(context.Context, any) error               { return nil }
func (f *fakeEntityFacet) Delete(context.Context, any) error                { return nil }
func (f *fakeEntityFacet) Refresh(context.Context, any) ([]string, error)   { return nil, nil }
func (f *fakeEntityFacet) Detach(context.Context, any) error                { return nil }

type entityLoader struct {
	facet *fakeEntityFacet
	calls int
}

func (l *entityLoader) LoadObject(ctx context.Context, s *Specification, id string) (*ManagedObject, error) {
	l.calls++
	pojo, err := l.facet.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return Identified(s, pojo, Bookmark{LogicalTypeName: s.LogicalTypeName(), Identifier: id}), nil
}

type hidingFacet struct {
	facetapi.Base
	reason string
}

func (f *hidingFacet) Hides(vc VisibilityContext) string {
	if vc.InitiatedBy == User {
		return f.reason
	}
	return ""
}

type titleFacet struct {
	facetapi.Base
}

func (f *titleFacet) Title(pojo any) string {
	return pojo.(*order).Name
}

type order struct {
	Name  string
	Total int
	Lines []*line
}

type line struct {
	Sku string
}

func (o *order) Clone() *order {
	c := *o
	return &c
}

func (o *order) Ship(priority int, note *string, express bool) string {
	if note != nil {
		return *note
	}
	if express {
		return "express"
	}
	if priority == 0 {
		return "standard"
	}
	return "priority"
}

func (o *order) Cancel() error {
	return errCancel
}

func (o *order) Explode() {
	panic("boom")
}
