package spec

import (
	"context"
	"fmt"
	"reflect"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
)

// IsSpecified reports whether mo is non-nil and has a specification.
func IsSpecified(mo *ManagedObject) bool {
	return mo != nil && mo.spec != nil
}

// IsNullOrUnspecifiedOrEmpty reports whether mo carries no usable pojo.
func IsNullOrUnspecifiedOrEmpty(mo *ManagedObject) bool {
	return !IsSpecified(mo) || mo.IsEmpty()
}

// IsEntity reports whether mo is an entity. Unspecified objects are not.
func IsEntity(mo *ManagedObject) bool {
	return IsSpecified(mo) && mo.spec.IsEntity()
}

// IsValue reports whether mo is a value.
func IsValue(mo *ManagedObject) bool {
	return IsSpecified(mo) && mo.spec.IsValue()
}

// IsViewModel reports whether mo is a view model.
func IsViewModel(mo *ManagedObject) bool {
	return IsSpecified(mo) && mo.spec.IsViewModel()
}

// IsIdentifiable reports whether mo can be bookmarked.
func IsIdentifiable(mo *ManagedObject) bool {
	return IsSpecified(mo) && mo.spec.IsIdentifiable()
}

// Identify returns the bookmark of mo: the recorded one, else the store
// identity of an entity, else the memento of a view model.
func Identify(mo *ManagedObject) (Bookmark, bool) {
	if IsNullOrUnspecifiedOrEmpty(mo) || !mo.spec.IsIdentifiable() {
		return Bookmark{}, false
	}
	if b, ok := mo.Bookmark(); ok {
		return b, true
	}
	s := mo.spec
	if ef, ok := facetapi.Lookup[EntityFacet](s.holder, EntityFacetType); ok {
		if id, ok := ef.Identify(mo.pojo); ok {
			return Bookmark{LogicalTypeName: s.logicalName, Identifier: id}, true
		}
		return Bookmark{}, false
	}
	if vm, ok := facetapi.Lookup[ViewModelFacet](s.holder, ViewModelFacetType); ok {
		memento, err := vm.Memento(mo.pojo)
		if err != nil {
			return Bookmark{}, false
		}
		return Bookmark{LogicalTypeName: s.logicalName, Identifier: memento}, true
	}
	return Bookmark{}, false
}

// BookmarkOf is Identify without the ok flag: an unidentifiable object
// yields the zero bookmark.
func BookmarkOf(mo *ManagedObject) Bookmark {
	b, _ := Identify(mo)
	return b
}

// BookmarkElseFail returns the bookmark of mo or ErrNotIdentifiable.
func BookmarkElseFail(mo *ManagedObject) (Bookmark, error) {
	b, ok := Identify(mo)
	if !ok {
		return Bookmark{}, fmt.Errorf("%s: %w", mo, ErrNotIdentifiable)
	}
	return b, nil
}

// Stringify returns the string form of the bookmark of mo.
func Stringify(mo *ManagedObject) (string, bool) {
	b, ok := Identify(mo)
	if !ok {
		return "", false
	}
	return b.String(), true
}

// AbbreviatedTitleOf returns the title of mo cut to maxLength runes, the cut
// marked by suffix.
func AbbreviatedTitleOf(mo *ManagedObject, maxLength int, suffix string) string {
	title := []rune(mo.Title())
	if len(title) <= maxLength {
		return string(title)
	}
	keep := maxLength - len([]rune(suffix))
	if keep < 0 {
		keep = 0
	}
	return string(title[:keep]) + suffix
}

// CopyIfClonable returns a managed object wrapping a clone of the pojo when
// the pojo has a Clone method returning its own type, else mo itself.
func CopyIfClonable(mo *ManagedObject) *ManagedObject {
	if IsNullOrUnspecifiedOrEmpty(mo) {
		return mo
	}
	v := reflect.ValueOf(mo.pojo)
	m := v.MethodByName("Clone")
	if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() != 1 || m.Type().Out(0) != v.Type() {
		return mo
	}
	return NewManagedObject(mo.spec, m.Call(nil)[0].Interface())
}

// RequiresAttached panics with an AssertionError when mo is a persistable
// object that is not attached. It returns mo for chaining.
func RequiresAttached(mo *ManagedObject) *ManagedObject {
	if !IsEntity(mo) {
		return mo
	}
	state := mo.EntityState()
	if state.IsPersistable() && !state.IsAttached() {
		assertionFailed("entity %s is required to be attached but is %s", mo, state)
	}
	return mo
}

// Reattach returns an attached replacement for a detached entity, loaded by
// its identifier through loader. Objects that are not persistable, not
// detached or without an identifier are returned as is. mo is never mutated.
func Reattach(ctx context.Context, loader ObjectLoader, mo *ManagedObject) (*ManagedObject, error) {
	if !IsEntity(mo) || mo.IsEmpty() {
		return mo, nil
	}
	if !mo.EntityState().IsDetached() {
		return mo, nil
	}
	b, ok := Identify(mo)
	if !ok {
		return mo, nil
	}
	attached, err := loader.LoadObject(ctx, mo.spec, b.Identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to reattach %s: %w", b, err)
	}
	return attached, nil
}

// Adapt wraps pojo with the specification of its dynamic type.
func Adapt(loader SpecificationLoader, pojo any) *ManagedObject {
	if isNil(pojo) {
		return Unspecified()
	}
	return NewManagedObject(loader.LoadSpecification(reflect.TypeOf(pojo)), pojo)
}
