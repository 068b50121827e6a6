package value

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/conduit-lang/metamodel/applib"
)

// enumProvider gives value semantics to non-struct types implementing
// applib.Enumerated. Values are entered and encoded by name.
type enumProvider struct {
	values []any
}

var enumeratedType = reflect.TypeFor[applib.Enumerated]()

// isEnum reports whether t is a non-struct type enumerating its values.
func isEnum(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Pointer, reflect.Interface:
		return false
	}
	return t.Implements(enumeratedType)
}

func enumRegistration(t reflect.Type) registration {
	return registration{key: "enum", provider: func(Env) *Builder {
		p := &enumProvider{values: reflect.Zero(t).Interface().(applib.Enumerated).EnumValues()}
		longest := 0
		for _, v := range p.values {
			longest = max(longest, len(fmt.Sprint(v)))
		}
		return NewBuilder(t).Capabilities(p).Lengths(longest, longest)
	}}
}

func (p *enumProvider) find(name string) (any, bool) {
	for _, v := range p.values {
		if strings.EqualFold(fmt.Sprint(v), name) {
			return v, true
		}
	}
	return nil, false
}

func (p *enumProvider) Parse(text string) (any, error) {
	v, ok := p.find(text)
	if !ok {
		return nil, fmt.Errorf("%q is not one of %v", text, p.values)
	}
	return v, nil
}

func (p *enumProvider) Encode(v any) (string, error) {
	return fmt.Sprint(v), nil
}

func (p *enumProvider) Decode(s string) (any, error) {
	return p.Parse(s)
}

func (p *enumProvider) DefaultValue() any {
	if len(p.values) == 0 {
		return nil
	}
	return p.values[0]
}

func (p *enumProvider) Title(v any) string { return fmt.Sprint(v) }

func (p *enumProvider) TitleWithMask(v any, _ string) string { return p.Title(v) }
