package object

import (
	"context"
	"fmt"
	"reflect"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/memento"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence"
)

// DefaultMixinMethod is the method a mixin contributes unless its
// annotation names another.
const DefaultMixinMethod = "Act"

type entityFacet struct {
	facetapi.Base
	typ   reflect.Type
	store persistence.Store
	specs spec.SpecificationLoader
}

func (f *entityFacet) spec() *spec.Specification {
	return f.specs.LoadSpecification(f.typ)
}

func (f *entityFacet) EntityState(pojo any) spec.EntityState {
	if f.store == nil {
		return spec.NotPersistable
	}
	return f.store.State(pojo)
}

func (f *entityFacet) Identify(pojo any) (string, bool) {
	if f.store == nil {
		return "", false
	}
	return f.store.Identify(pojo)
}

func (f *entityFacet) Load(ctx context.Context, id string) (any, error) {
	if f.store == nil {
		return nil, persistence.ErrNotPersistable
	}
	return f.store.Load(ctx, f.spec(), id)
}

func (f *entityFacet) Query(ctx context.Context, q spec.Query) ([]any, error) {
	if f.store == nil {
		return nil, persistence.ErrNotPersistable
	}
	return f.store.Query(ctx, f.spec(), q)
}

func (f *entityFacet) Persist(ctx context.Context, pojo any) error {
	if f.store == nil {
		return persistence.ErrNotPersistable
	}
	return f.store.Persist(ctx, f.spec(), pojo)
}

func (f *entityFacet) Delete(ctx context.Context, pojo any) error {
	if f.store == nil {
		return persistence.ErrNotPersistable
	}
	return f.store.Delete(ctx, f.spec(), pojo)
}

func (f *entityFacet) Refresh(ctx context.Context, pojo any) ([]string, error) {
	if f.store == nil {
		return nil, persistence.ErrNotPersistable
	}
	return f.store.Refresh(ctx, f.spec(), pojo)
}

func (f *entityFacet) Detach(ctx context.Context, pojo any) error {
	if f.store == nil {
		return persistence.ErrNotPersistable
	}
	return f.store.Detach(ctx, f.spec(), pojo)
}

func (f *entityFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["store"] = fmt.Sprintf("%T", f.store)
}

// EntityFacetFactory binds entity types to the persistence store.
type EntityFacetFactory struct{}

func (EntityFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (EntityFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	if ctx.Class.Annotations.Object.Nature != applib.NatureEntity {
		return nil
	}
	return ctx.AddFacet(&entityFacet{
		Base:  facetapi.NewBase(spec.EntityFacetType),
		typ:   ctx.Class.Type,
		store: ctx.Store,
		specs: ctx.Specs,
	})
}

type viewModelFacet struct {
	facetapi.Base
	typ reflect.Type
}

// Memento serializes the exported state of a view model.
func (f *viewModelFacet) Memento(pojo any) (string, error) {
	v := reflect.ValueOf(pojo)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", fmt.Errorf("nil %s has no memento", f.typ)
		}
		v = v.Elem()
	}
	if v.Type() != f.typ {
		return "", fmt.Errorf("expected %s, got %T", f.typ, pojo)
	}
	return memento.EncodeString(v.Interface())
}

// Instantiate recreates a view model from its memento.
func (f *viewModelFacet) Instantiate(m string) (any, error) {
	p := reflect.New(f.typ)
	if err := memento.DecodeString(m, p.Interface()); err != nil {
		return nil, fmt.Errorf("failed to recreate %s: %w", f.typ, err)
	}
	return p.Interface(), nil
}

// ViewModelFacetFactory makes view models recreatable from mementos.
type ViewModelFacetFactory struct{}

func (ViewModelFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (ViewModelFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	if ctx.Class.Annotations.Object.Nature != applib.NatureViewModel {
		return nil
	}
	return ctx.AddFacet(&viewModelFacet{Base: facetapi.NewBase(spec.ViewModelFacetType), typ: ctx.Class.Type})
}

// MixinFacet marks a type contributing one action to its target.
type MixinFacet struct {
	facetapi.Base
	typ    reflect.Type
	target reflect.Type
	// Method is the contributed method.
	Method string
}

// Target implements spec.MixinFacet
func (f *MixinFacet) Target() reflect.Type { return f.target }

// Instantiate returns a new mixin whose first field accepting the mixee
// holds it.
func (f *MixinFacet) Instantiate(mixee any) (any, error) {
	mv := reflect.ValueOf(mixee)
	if !mv.IsValid() {
		return nil, fmt.Errorf("mixin %s needs a mixee", f.typ)
	}
	p := reflect.New(f.typ)
	for i := 0; i < f.typ.NumField(); i++ {
		field := p.Elem().Field(i)
		if !field.CanSet() {
			continue
		}
		if mv.Type().AssignableTo(field.Type()) {
			field.Set(mv)
			return p.Interface(), nil
		}
		if mv.Kind() == reflect.Pointer && !mv.IsNil() && mv.Elem().Type().AssignableTo(field.Type()) {
			field.Set(mv.Elem())
			return p.Interface(), nil
		}
	}
	return nil, fmt.Errorf("mixin %s has no field accepting %T", f.typ, mixee)
}

func (f *MixinFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["target"] = spec.LogicalTypeName(f.target)
	attrs["method"] = f.Method
}

// MixinFacetFactory reads the mixin annotation.
type MixinFacetFactory struct{}

func (MixinFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.ObjectsOnly
}

func (MixinFacetFactory) ProcessClass(ctx *facets.ProcessClassContext) error {
	a := ctx.Class.Annotations.Object
	if a.Nature != applib.NatureMixin {
		return nil
	}
	target, ok := MixinTarget(a)
	if !ok || ctx.Class.Type.Kind() != reflect.Struct {
		ctx.Sink.OnFailure(ctx.Holder.Identifier(), "mixin must be a struct naming its target with MixinFor")
		return nil
	}
	method := a.MixinMethod
	if method == "" {
		method = DefaultMixinMethod
	}
	return ctx.AddFacet(&MixinFacet{
		Base:   facetapi.NewBase(spec.MixinFacetType),
		typ:    ctx.Class.Type,
		target: target,
		Method: method,
	})
}

// MixinTarget returns the struct type a mixin annotation contributes to.
func MixinTarget(a applib.ObjectAnnotation) (reflect.Type, bool) {
	if a.Nature != applib.NatureMixin || a.MixinFor == nil {
		return nil, false
	}
	t := reflect.TypeOf(a.MixinFor)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t.Kind() == reflect.Struct
}
