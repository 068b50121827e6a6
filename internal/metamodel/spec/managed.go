package spec

import (
	"fmt"
	"strings"
)

// Bookmark is the stable, serializable identity of an object.
type Bookmark struct {
	LogicalTypeName string
	Identifier      string
}

// String returns the form "todo.Item:42".
func (b Bookmark) String() string {
	return b.LogicalTypeName + ":" + b.Identifier
}

// IsZero reports whether b is empty.
func (b Bookmark) IsZero() bool {
	return b.LogicalTypeName == "" && b.Identifier == ""
}

// ParseBookmark parses the form produced by Bookmark.String.
func ParseBookmark(s string) (Bookmark, error) {
	typeName, id, ok := strings.Cut(s, ":")
	if !ok || typeName == "" {
		return Bookmark{}, fmt.Errorf("malformed bookmark %q", s)
	}
	return Bookmark{LogicalTypeName: typeName, Identifier: id}, nil
}

// ManagedObject pairs a domain object with its specification. It is
// immutable; operations that change identity return a new value.
type ManagedObject struct {
	spec     *Specification
	pojo     any
	bookmark *Bookmark
}

var unspecified = &ManagedObject{}

// NewManagedObject wraps pojo.
func NewManagedObject(s *Specification, pojo any) *ManagedObject {
	return &ManagedObject{spec: s, pojo: pojo}
}

// Identified wraps pojo together with its known bookmark.
func Identified(s *Specification, pojo any, b Bookmark) *ManagedObject {
	return &ManagedObject{spec: s, pojo: pojo, bookmark: &b}
}

// Empty returns a managed object of specification s without a pojo.
func Empty(s *Specification) *ManagedObject {
	return &ManagedObject{spec: s}
}

// Unspecified returns the managed object that has no specification.
func Unspecified() *ManagedObject {
	return unspecified
}

// Specification returns the specification, nil when unspecified.
func (mo *ManagedObject) Specification() *Specification {
	if mo == nil {
		return nil
	}
	return mo.spec
}

// Pojo returns the wrapped domain object.
func (mo *ManagedObject) Pojo() any {
	if mo == nil {
		return nil
	}
	return mo.pojo
}

// Bookmark returns the bookmark recorded when the object was identified.
func (mo *ManagedObject) Bookmark() (Bookmark, bool) {
	if mo == nil || mo.bookmark == nil {
		return Bookmark{}, false
	}
	return *mo.bookmark, true
}

// WithBookmark returns a copy carrying b.
func (mo *ManagedObject) WithBookmark(b Bookmark) *ManagedObject {
	return Identified(mo.spec, mo.pojo, b)
}

// IsEmpty reports whether there is no pojo.
func (mo *ManagedObject) IsEmpty() bool {
	return mo == nil || isNil(mo.pojo)
}

// Title renders the object's title, "" when empty.
func (mo *ManagedObject) Title() string {
	if IsNullOrUnspecifiedOrEmpty(mo) {
		return ""
	}
	return mo.spec.TitleOf(mo.pojo)
}

// EntityState reports the persistence state of the pojo.
func (mo *ManagedObject) EntityState() EntityState {
	if IsNullOrUnspecifiedOrEmpty(mo) {
		return NotPersistable
	}
	return mo.spec.EntityStateOf(mo.pojo)
}

// String implements fmt.Stringer
func (mo *ManagedObject) String() string {
	switch {
	case mo == nil:
		return "ManagedObject{nil}"
	case mo.spec == nil:
		return "ManagedObject{unspecified}"
	case mo.bookmark != nil:
		return fmt.Sprintf("ManagedObject{%s}", mo.bookmark)
	default:
		return fmt.Sprintf("ManagedObject{%s, %T}", mo.spec.logicalName, mo.pojo)
	}
}
