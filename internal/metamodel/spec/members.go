package spec

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
)

// Member is a property, collection or action of a specification.
type Member interface {
	ID() string
	Identifier() facetapi.Identifier
	FeatureType() facetapi.FeatureType
	Holder() *facetapi.Holder
	Owner() *Specification
	// Specification is the specification of the member's type: the property
	// type, the collection element type or the action return type.
	Specification() *Specification
	Visibility(vc VisibilityContext) Consent
	Usability(uc UsabilityContext) Consent
}

type member struct {
	id       string
	owner    *Specification
	holder   *facetapi.Holder
	typ      reflect.Type
	typeSpec atomic.Pointer[Specification]
}

func (m *member) ID() string                        { return m.id }
func (m *member) Identifier() facetapi.Identifier   { return m.holder.Identifier() }
func (m *member) FeatureType() facetapi.FeatureType { return m.holder.FeatureType() }
func (m *member) Holder() *facetapi.Holder          { return m.holder }
func (m *member) Owner() *Specification             { return m.owner }

// Type returns the Go type of the member.
func (m *member) Type() reflect.Type { return m.typ }

// Facet returns the active facet of type t on the member's holder.
func (m *member) Facet(t facetapi.FacetType) facetapi.Facet {
	return m.holder.Facet(t)
}

func (m *member) Specification() *Specification {
	if m.typ == nil {
		return nil
	}
	if s := m.typeSpec.Load(); s != nil {
		return s
	}
	s := m.owner.loader.LoadSpecification(m.typ)
	m.typeSpec.CompareAndSwap(nil, s)
	return m.typeSpec.Load()
}

// Resolve records the specification of the member's type. Assembly only.
func (m *member) Resolve(s *Specification) { m.typeSpec.CompareAndSwap(nil, s) }

func (m *member) Visibility(vc VisibilityContext) Consent {
	return visibilityOf(m.holder, vc)
}

func (m *member) Usability(uc UsabilityContext) Consent {
	return usabilityOf(m.holder, uc)
}

// Property is a scalar field of a domain type.
type Property struct {
	member
	index []int
}

// NewProperty creates a property backed by the struct field at index.
func NewProperty(owner *Specification, field reflect.StructField, holder *facetapi.Holder) *Property {
	return &Property{
		member: member{id: field.Name, owner: owner, holder: holder, typ: field.Type},
		index:  field.Index,
	}
}

// Value reads the property of pojo. A nil embedded pointer yields nil.
func (p *Property) Value(pojo any) any {
	v, ok := fieldOf(pojo, p.index)
	if !ok {
		return nil
	}
	return v.Interface()
}

// SetValue writes the property of pojo. A nil value stores the zero value.
func (p *Property) SetValue(pojo any, value any) error {
	v, ok := fieldOf(pojo, p.index)
	if !ok || !v.CanSet() {
		return fmt.Errorf("%s: property is not settable on %T", p.Identifier(), pojo)
	}
	if value == nil {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(v.Type()) {
		return fmt.Errorf("%s: cannot assign %T to %s", p.Identifier(), value, v.Type())
	}
	v.Set(rv)
	return nil
}

// Get reads the property of mo as a managed object.
func (p *Property) Get(mo *ManagedObject) *ManagedObject {
	if IsNullOrUnspecifiedOrEmpty(mo) {
		return nil
	}
	value := p.Value(mo.Pojo())
	return adapt(p.Specification(), value)
}

// Collection is a slice field whose elements are domain objects.
type Collection struct {
	member
	index       []int
	elementType reflect.Type
}

// NewCollection creates a collection backed by the struct field at index.
func NewCollection(owner *Specification, field reflect.StructField, holder *facetapi.Holder) *Collection {
	return &Collection{
		member:      member{id: field.Name, owner: owner, holder: holder, typ: field.Type.Elem()},
		index:       field.Index,
		elementType: field.Type.Elem(),
	}
}

// ElementType returns the Go type of the elements.
func (c *Collection) ElementType() reflect.Type { return c.elementType }

// Elements reads the elements of the collection of pojo.
func (c *Collection) Elements(pojo any) []any {
	v, ok := fieldOf(pojo, c.index)
	if !ok || v.IsNil() {
		return nil
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

// Get reads the collection of mo as managed objects.
func (c *Collection) Get(mo *ManagedObject) []*ManagedObject {
	if IsNullOrUnspecifiedOrEmpty(mo) {
		return nil
	}
	elems := c.Elements(mo.Pojo())
	out := make([]*ManagedObject, 0, len(elems))
	for _, e := range elems {
		out = append(out, adapt(c.Specification(), e))
	}
	return out
}

// Method is an invocable method with its receiver as the first input.
type Method struct {
	Identifier facetapi.Identifier
	Func       reflect.Value
	Type       reflect.Type
}

// NewMethod wraps a method of a pointer type's method set.
func NewMethod(id facetapi.Identifier, m reflect.Method) Method {
	return Method{Identifier: id, Func: m.Func, Type: m.Type}
}

// ParamTypes returns the input types, receiver excluded.
func (m Method) ParamTypes() []reflect.Type {
	if m.Type == nil {
		return nil
	}
	out := make([]reflect.Type, 0, m.Type.NumIn()-1)
	for i := 1; i < m.Type.NumIn(); i++ {
		out = append(out, m.Type.In(i))
	}
	return out
}

// Action is an invocable method of a domain type.
type Action struct {
	member
	method     Method
	parameters []*Parameter
	mixin      *Specification
}

// NewAction creates an action for method. Its parameters are added with
// AddParameter.
func NewAction(owner *Specification, id string, method Method, holder *facetapi.Holder) *Action {
	var ret reflect.Type
	if method.Type != nil {
		for i := 0; i < method.Type.NumOut(); i++ {
			if out := method.Type.Out(i); out != errorType {
				ret = out
				break
			}
		}
	}
	return &Action{
		member: member{id: id, owner: owner, holder: holder, typ: ret},
		method: method,
	}
}

// Method returns the backing method.
func (a *Action) Method() Method { return a.method }

// ReturnType returns the non-error result type, or nil.
func (a *Action) ReturnType() reflect.Type { return a.typ }

// AddParameter appends a parameter. Assembly only.
func (a *Action) AddParameter(p *Parameter) { a.parameters = append(a.parameters, p) }

// Parameters returns the parameters in declaration order.
func (a *Action) Parameters() []*Parameter { return a.parameters }

// SetMixin records the mixin specification contributing the action. Assembly only.
func (a *Action) SetMixin(mixin *Specification) { a.mixin = mixin }

// Mixin returns the contributing mixin specification, or nil.
func (a *Action) Mixin() *Specification { return a.mixin }

// IsMixedIn reports whether the action is contributed by a mixin.
func (a *Action) IsMixedIn() bool { return a.mixin != nil }

// Validity consults the validating facets of the action and its parameters.
func (a *Action) Validity(vc ValidityContext) Consent {
	for _, p := range a.parameters {
		if c := validityOf(p.holder, vc); c.IsVetoed() {
			return c
		}
	}
	return validityOf(a.holder, vc)
}

// Execute invokes the action through its invocation facet.
func (a *Action) Execute(ctx context.Context, target *ManagedObject, args []*ManagedObject) (*ManagedObject, error) {
	invocation, ok := facetapi.Lookup[ActionInvocationFacet](a.holder, ActionInvocationFacetType)
	if !ok {
		return nil, &InvocationError{Identifier: a.Identifier(), Cause: fmt.Errorf("no invocation facet")}
	}
	return invocation.Invoke(ctx, a, target, args)
}

// Parameter is one input of an action.
type Parameter struct {
	action *Action
	index  int
	typ    reflect.Type
	holder *facetapi.Holder
	spec   atomic.Pointer[Specification]
}

// NewParameter creates parameter index of action.
func NewParameter(action *Action, index int, t reflect.Type, holder *facetapi.Holder) *Parameter {
	return &Parameter{action: action, index: index, typ: t, holder: holder}
}

func (p *Parameter) Action() *Action                   { return p.action }
func (p *Parameter) Index() int                        { return p.index }
func (p *Parameter) Type() reflect.Type                { return p.typ }
func (p *Parameter) Holder() *facetapi.Holder          { return p.holder }
func (p *Parameter) Identifier() facetapi.Identifier   { return p.holder.Identifier() }
func (p *Parameter) FeatureType() facetapi.FeatureType { return p.holder.FeatureType() }

// Facet returns the active facet of type t on the parameter's holder.
func (p *Parameter) Facet(t facetapi.FacetType) facetapi.Facet {
	return p.holder.Facet(t)
}

// Specification returns the specification of the parameter type, or of its
// element type for collection parameters.
func (p *Parameter) Specification() *Specification {
	if s := p.spec.Load(); s != nil {
		return s
	}
	t := p.typ
	if p.FeatureType() == facetapi.ActionParameterCollection {
		t = t.Elem()
	}
	s := p.action.owner.loader.LoadSpecification(t)
	p.spec.CompareAndSwap(nil, s)
	return p.spec.Load()
}

// Resolve records the specification of the parameter type. Assembly only.
func (p *Parameter) Resolve(s *Specification) { p.spec.CompareAndSwap(nil, s) }

var errorType = reflect.TypeFor[error]()

func fieldOf(pojo any, index []int) (reflect.Value, bool) {
	v := reflect.ValueOf(pojo)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	f, err := v.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return f, true
}

func adapt(s *Specification, pojo any) *ManagedObject {
	if isNil(pojo) {
		if s == nil {
			return Unspecified()
		}
		return Empty(s)
	}
	if s == nil {
		return Unspecified()
	}
	// the dynamic type of pojo may be more specific than the declared one
	dyn := reflect.TypeOf(pojo)
	if dyn != s.typ && derefType(dyn) != s.typ {
		return NewManagedObject(s.loader.LoadSpecification(dyn), pojo)
	}
	return NewManagedObject(s, pojo)
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
