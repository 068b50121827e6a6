// Package spec is the runtime view of the metamodel: one Specification per
// introspected type, its members, and the ManagedObject wrapper pairing a
// domain object with its specification.
package spec

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
)

// BeanSort classifies a specification.
type BeanSort int

const (
	SortUnknown BeanSort = iota
	SortValue
	SortEntity
	SortViewModel
	SortMixin
	SortCollection
	SortAbstract
)

// String returns the string representation of a BeanSort
func (b BeanSort) String() string {
	switch b {
	case SortValue:
		return "value"
	case SortEntity:
		return "entity"
	case SortViewModel:
		return "view_model"
	case SortMixin:
		return "mixin"
	case SortCollection:
		return "collection"
	case SortAbstract:
		return "abstract"
	default:
		return "unknown"
	}
}

// IntrospectionState tracks how far a specification has been assembled.
type IntrospectionState int32

const (
	NotIntrospected IntrospectionState = iota
	// Introspecting specifications are visible to cyclic lookups while their
	// own members are still being processed.
	Introspecting
	Introspected
	// Ready specifications are sealed and published.
	Ready
)

// String returns the string representation of an IntrospectionState
func (s IntrospectionState) String() string {
	switch s {
	case Introspecting:
		return "introspecting"
	case Introspected:
		return "introspected"
	case Ready:
		return "ready"
	default:
		return "not_introspected"
	}
}

// Specification describes one type of the metamodel.
type Specification struct {
	typ         reflect.Type
	logicalName string
	holder      *facetapi.Holder
	loader      SpecificationLoader
	sort        BeanSort
	state       atomic.Int32

	elementType reflect.Type
	elementSpec atomic.Pointer[Specification]

	properties  []*Property
	collections []*Collection
	actions     []*Action
}

// New creates a specification in the Introspecting state. The loader calls
// the assembly methods (SetBeanSort, AddProperty, ...) before publishing it.
func New(t reflect.Type, logicalName string, holder *facetapi.Holder, loader SpecificationLoader) *Specification {
	s := &Specification{
		typ:         t,
		logicalName: logicalName,
		holder:      holder,
		loader:      loader,
	}
	s.state.Store(int32(Introspecting))
	return s
}

// LogicalTypeName returns the stable type name, e.g. "todo.Item".
func LogicalTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	pkg := t.PkgPath()
	if pkg == "" {
		return t.Name()
	}
	for i := len(pkg) - 1; i >= 0; i-- {
		if pkg[i] == '/' {
			pkg = pkg[i+1:]
			break
		}
	}
	return pkg + "." + t.Name()
}

func (s *Specification) Type() reflect.Type              { return s.typ }
func (s *Specification) LogicalTypeName() string         { return s.logicalName }
func (s *Specification) Holder() *facetapi.Holder        { return s.holder }
func (s *Specification) Identifier() facetapi.Identifier { return s.holder.Identifier() }
func (s *Specification) BeanSort() BeanSort              { return s.sort }
func (s *Specification) Loader() SpecificationLoader     { return s.loader }

// ShortName returns the unqualified type name.
func (s *Specification) ShortName() string {
	if s.typ.Name() != "" {
		return s.typ.Name()
	}
	return s.typ.String()
}

// Facet returns the active facet of type t on the type's holder.
func (s *Specification) Facet(t facetapi.FacetType) facetapi.Facet {
	return s.holder.Facet(t)
}

func (s *Specification) IsEntity() bool     { return s.sort == SortEntity }
func (s *Specification) IsValue() bool      { return s.sort == SortValue }
func (s *Specification) IsViewModel() bool  { return s.sort == SortViewModel }
func (s *Specification) IsMixin() bool      { return s.sort == SortMixin }
func (s *Specification) IsCollection() bool { return s.sort == SortCollection }

// IsIdentifiable reports whether instances can be bookmarked.
func (s *Specification) IsIdentifiable() bool {
	return s.IsEntity() || s.IsViewModel()
}

// State returns the introspection state.
func (s *Specification) State() IntrospectionState {
	return IntrospectionState(s.state.Load())
}

// SetState advances the introspection state.
func (s *Specification) SetState(state IntrospectionState) {
	s.state.Store(int32(state))
}

// SetBeanSort records the classification. Assembly only.
func (s *Specification) SetBeanSort(sort BeanSort) {
	s.sort = sort
}

// SetElementType records the element type of a collection type. Assembly only.
func (s *Specification) SetElementType(t reflect.Type) {
	s.elementType = t
}

// ResolveElement records the specification of the element type. Assembly only.
func (s *Specification) ResolveElement(es *Specification) {
	s.elementSpec.CompareAndSwap(nil, es)
}

// AddProperty appends a property. Assembly only.
func (s *Specification) AddProperty(p *Property) { s.properties = append(s.properties, p) }

// AddCollection appends a collection. Assembly only.
func (s *Specification) AddCollection(c *Collection) { s.collections = append(s.collections, c) }

// AddAction appends an action. Assembly only.
func (s *Specification) AddAction(a *Action) { s.actions = append(s.actions, a) }

func (s *Specification) Properties() []*Property   { return s.properties }
func (s *Specification) Collections() []*Collection { return s.collections }
func (s *Specification) Actions() []*Action         { return s.actions }

// Property looks up a property by id.
func (s *Specification) Property(id string) (*Property, bool) {
	for _, p := range s.properties {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

// Collection looks up a collection by id.
func (s *Specification) Collection(id string) (*Collection, bool) {
	for _, c := range s.collections {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

// Action looks up an action by id.
func (s *Specification) Action(id string) (*Action, bool) {
	for _, a := range s.actions {
		if a.id == id {
			return a, true
		}
	}
	return nil, false
}

// Members returns properties, collections and actions in that order.
func (s *Specification) Members() []Member {
	members := make([]Member, 0, len(s.properties)+len(s.collections)+len(s.actions))
	for _, p := range s.properties {
		members = append(members, p)
	}
	for _, c := range s.collections {
		members = append(members, c)
	}
	for _, a := range s.actions {
		members = append(members, a)
	}
	return members
}

// ElementSpecification returns the specification of the elements of a
// collection type, or nil.
func (s *Specification) ElementSpecification() *Specification {
	if s.elementType == nil {
		return nil
	}
	if es := s.elementSpec.Load(); es != nil {
		return es
	}
	es := s.loader.LoadSpecification(s.elementType)
	s.elementSpec.CompareAndSwap(nil, es)
	return s.elementSpec.Load()
}

// TitleOf renders the title of pojo.
func (s *Specification) TitleOf(pojo any) string {
	if isNil(pojo) {
		return ""
	}
	if tf, ok := facetapi.Lookup[TitleFacet](s.holder, TitleFacetType); ok {
		return tf.Title(pojo)
	}
	return "Untitled " + s.ShortName()
}

// EntityStateOf reports the persistence state of pojo.
func (s *Specification) EntityStateOf(pojo any) EntityState {
	if isNil(pojo) {
		return NotPersistable
	}
	if ef, ok := facetapi.Lookup[EntityFacet](s.holder, EntityFacetType); ok {
		return ef.EntityState(pojo)
	}
	return NotPersistable
}

// Visibility consults the hiding facets of the type.
func (s *Specification) Visibility(vc VisibilityContext) Consent {
	return visibilityOf(s.holder, vc)
}

// String implements fmt.Stringer
func (s *Specification) String() string {
	return fmt.Sprintf("Specification{%s, %s, %s}", s.logicalName, s.sort, s.State())
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
