package facets

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/conduit-lang/metamodel/applib"
)

// Class is the candidate model of one domain type: its fields and the
// methods still eligible to become actions. Factories consume methods by
// removing them.
type Class struct {
	Type        reflect.Type
	LogicalName string
	Annotations applib.Annotations
	Annotated   bool
	Fields      []*Field
	methods     []*Method
}

// Field is an exported struct field.
type Field struct {
	reflect.StructField
	Tag applib.Tag
}

// Method is an exported method of the pointer method set.
type Method struct {
	reflect.Method
	// Synthetic methods are generated by code generators.
	Synthetic bool
	// Promoted methods are declared by an embedded type.
	Promoted      bool
	DeclaringType reflect.Type
	// Bind turns a pojo of another type into a receiver, e.g. a mixee
	// into its mixin.
	Bind func(pojo any) (any, error)
}

// NumParams returns the number of parameters, receiver excluded.
func (m *Method) NumParams() int {
	return m.Type.NumIn() - 1
}

// ParamType returns the type of parameter i, receiver excluded.
func (m *Method) ParamType(i int) reflect.Type {
	return m.Type.In(i + 1)
}

// ParamTypes returns the parameter types, receiver excluded.
func (m *Method) ParamTypes() []reflect.Type {
	out := make([]reflect.Type, m.NumParams())
	for i := range out {
		out[i] = m.ParamType(i)
	}
	return out
}

// Returns reports whether the results are exactly the given types.
func (m *Method) Returns(types ...reflect.Type) bool {
	if m.Type.NumOut() != len(types) {
		return false
	}
	for i, t := range types {
		if m.Type.Out(i) != t {
			return false
		}
	}
	return true
}

// Call invokes the method on pojo. A nil argument passes the zero value of
// its parameter; a panic is returned as an error.
func (m *Method) Call(pojo any, args ...any) (out []reflect.Value, err error) {
	recv, ok := Receiver(pojo, m.Type.In(0))
	if !ok && m.Bind != nil {
		bound, err := m.Bind(pojo)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		recv, ok = Receiver(bound, m.Type.In(0))
	}
	if !ok {
		return nil, fmt.Errorf("%s cannot be called on %T", m.Name, pojo)
	}
	if len(args) != m.NumParams() {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", m.Name, m.NumParams(), len(args))
	}
	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, recv)
	for i, a := range args {
		pt := m.ParamType(i)
		if a == nil {
			in = append(in, reflect.Zero(pt))
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(pt) {
			return nil, fmt.Errorf("%s argument %d: %s is not assignable to %s", m.Name, i, v.Type(), pt)
		}
		in = append(in, v)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", m.Name, r)
		}
	}()
	return m.Func.Call(in), nil
}

// Receiver adapts pojo to the receiver type want, taking the address of a
// copy when pojo is the value want points to.
func Receiver(pojo any, want reflect.Type) (reflect.Value, bool) {
	v := reflect.ValueOf(pojo)
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if v.Type() == want {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return reflect.Value{}, false
		}
		return v, true
	}
	if want.Kind() == reflect.Pointer && v.Type() == want.Elem() {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, true
	}
	return reflect.Value{}, false
}

var syntheticNames = map[string]bool{
	"ProtoMessage": true,
	"ProtoReflect": true,
	"Descriptor":   true,
}

// NewClass builds the candidate model of type t. Only struct types have
// fields.
func NewClass(t reflect.Type, logicalName string) *Class {
	c := &Class{Type: t, LogicalName: logicalName}
	if a, ok := AnnotationsOf(t); ok {
		c.Annotations = a
		c.Annotated = true
	}
	if t.Kind() != reflect.Struct {
		return c
	}

	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		tag := applib.ParseTag(sf)
		if tag.Has("-") {
			continue
		}
		c.Fields = append(c.Fields, &Field{StructField: sf, Tag: tag})
	}

	embedded := embeddedTypes(t)
	ptr := reflect.PointerTo(t)
	for i := 0; i < ptr.NumMethod(); i++ {
		rm := ptr.Method(i)
		m := &Method{
			Method:    rm,
			Synthetic: syntheticNames[rm.Name] || strings.HasPrefix(rm.Name, "XXX_"),
		}
		if decl := declaringEmbedded(embedded, rm); decl != nil {
			m.Promoted = true
			m.DeclaringType = decl
		}
		c.methods = append(c.methods, m)
	}
	return c
}

// PtrType returns *T.
func (c *Class) PtrType() reflect.Type {
	return reflect.PointerTo(c.Type)
}

// Methods returns a snapshot of the remaining candidate methods.
func (c *Class) Methods() []*Method {
	return append([]*Method(nil), c.methods...)
}

// Method returns the remaining candidate named name.
func (c *Class) Method(name string) (*Method, bool) {
	for _, m := range c.methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// RemoveMethod drops m from the candidates.
func (c *Class) RemoveMethod(m *Method) {
	for i, cand := range c.methods {
		if cand == m {
			c.methods = append(c.methods[:i], c.methods[i+1:]...)
			return
		}
	}
}

// RemoveMethods drops every candidate matching pred and returns them.
func (c *Class) RemoveMethods(pred func(*Method) bool) []*Method {
	var removed []*Method
	kept := c.methods[:0]
	for _, m := range c.methods {
		if pred(m) {
			removed = append(removed, m)
			continue
		}
		kept = append(kept, m)
	}
	c.methods = kept
	return removed
}

// BindReceivers sets Bind on every remaining candidate.
func (c *Class) BindReceivers(bind func(pojo any) (any, error)) {
	for _, m := range c.methods {
		m.Bind = bind
	}
}

// TakeMethod removes and returns the candidate named name if match accepts it.
func (c *Class) TakeMethod(name string, match func(*Method) bool) (*Method, bool) {
	m, ok := c.Method(name)
	if !ok || (match != nil && !match(m)) {
		return nil, false
	}
	c.RemoveMethod(m)
	return m, true
}

// Field looks up a candidate field by name.
func (c *Class) Field(name string) (*Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// ActionAnnotation returns the annotation of the named method, if any.
func (c *Class) ActionAnnotation(name string) (applib.ActionAnnotation, bool) {
	a, ok := c.Annotations.Actions[name]
	return a, ok
}

// AnnotationsOf calls MetamodelAnnotations on a zero *T when T is annotated.
func AnnotationsOf(t reflect.Type) (applib.Annotations, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	annotated, ok := reflect.New(t).Interface().(applib.Annotated)
	if !ok {
		return applib.Annotations{}, false
	}
	return annotated.MetamodelAnnotations(), true
}

func embeddedTypes(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous {
			out = append(out, sf.Type)
		}
	}
	return out
}

// declaringEmbedded returns the embedded type a method is promoted from. A
// method redeclared with the same signature on the outer type is reported as
// promoted too; reflection cannot tell them apart.
func declaringEmbedded(embedded []reflect.Type, m reflect.Method) reflect.Type {
	for _, et := range embedded {
		candidates := et
		if et.Kind() != reflect.Pointer {
			candidates = reflect.PointerTo(et)
		}
		em, ok := candidates.MethodByName(m.Name)
		if !ok || !sameSignature(em.Type, m.Type) {
			continue
		}
		if et.Kind() == reflect.Pointer {
			return et.Elem()
		}
		return et
	}
	return nil
}

func sameSignature(a, b reflect.Type) bool {
	if a.NumIn() != b.NumIn() || a.NumOut() != b.NumOut() {
		return false
	}
	for i := 1; i < a.NumIn(); i++ {
		if a.In(i) != b.In(i) {
			return false
		}
	}
	for i := 0; i < a.NumOut(); i++ {
		if a.Out(i) != b.Out(i) {
			return false
		}
	}
	return true
}

// NaturalName turns an identifier into words: "DueDate" -> "Due Date".
func NaturalName(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			switch {
			case unicode.IsUpper(r):
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteRune(' ')
				}
			case unicode.IsDigit(r) && !unicode.IsDigit(prev):
				b.WriteRune(' ')
			}
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
