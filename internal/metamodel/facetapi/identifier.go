package facetapi

import (
	"fmt"
	"strings"
)

// Identifier names a feature: a type, one of its members, or one of an
// action's parameters.
type Identifier struct {
	ClassName  string
	MemberName string
	// ParameterIndex is -1 unless the identifier names a parameter.
	ParameterIndex int
}

// ClassIdentifier returns the identifier of a type.
func ClassIdentifier(className string) Identifier {
	return Identifier{ClassName: className, ParameterIndex: -1}
}

// Member returns the identifier of a member of the type named by id.
func (id Identifier) Member(name string) Identifier {
	return Identifier{ClassName: id.ClassName, MemberName: name, ParameterIndex: -1}
}

// Parameter returns the identifier of parameter index of the action named by id.
func (id Identifier) Parameter(index int) Identifier {
	return Identifier{ClassName: id.ClassName, MemberName: id.MemberName, ParameterIndex: index}
}

// IsClass reports whether id names a type.
func (id Identifier) IsClass() bool {
	return id.MemberName == ""
}

// IsParameter reports whether id names an action parameter.
func (id Identifier) IsParameter() bool {
	return id.ParameterIndex >= 0
}

// Owner returns the identifier one level up: parameter to action, member to type.
func (id Identifier) Owner() Identifier {
	switch {
	case id.IsParameter():
		return id.Parent().Member(id.MemberName)
	case !id.IsClass():
		return id.Parent()
	default:
		return id
	}
}

// Parent returns the identifier of the type.
func (id Identifier) Parent() Identifier {
	return ClassIdentifier(id.ClassName)
}

// String returns the stable path form, e.g. todo.Item#Complete(0).
func (id Identifier) String() string {
	var b strings.Builder
	b.WriteString(id.ClassName)
	if id.MemberName != "" {
		b.WriteByte('#')
		b.WriteString(id.MemberName)
	}
	if id.IsParameter() {
		fmt.Fprintf(&b, "(%d)", id.ParameterIndex)
	}
	return b.String()
}
