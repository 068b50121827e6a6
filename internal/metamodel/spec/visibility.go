package spec

import (
	"iter"

	"github.com/conduit-lang/metamodel/applib"
)

// IsVisible reports whether mo may be shown. Empty objects are visible,
// destroyed entities are not, framework-initiated checks always pass, and
// user-initiated checks consult the type's hiding facets.
func IsVisible(mo *ManagedObject, initiatedBy InteractionInitiatedBy) bool {
	if IsNullOrUnspecifiedOrEmpty(mo) {
		return true
	}
	if mo.spec.IsEntity() && mo.EntityState().IsDestroyed() {
		return false
	}
	if initiatedBy == Framework {
		return true
	}
	vc := VisibilityContext{
		Target:      mo,
		Identifier:  mo.spec.Identifier(),
		InitiatedBy: initiatedBy,
		Where:       applib.ObjectForms,
	}
	return mo.spec.Visibility(vc).IsAllowed()
}

// FilterVisible returns the visible objects of mos, preserving order.
func FilterVisible(mos []*ManagedObject, initiatedBy InteractionInitiatedBy) []*ManagedObject {
	out := make([]*ManagedObject, 0, len(mos))
	for _, mo := range mos {
		if IsVisible(mo, initiatedBy) {
			out = append(out, mo)
		}
	}
	return out
}

// StreamVisibleAdapters iterates the visible elements of a collection object.
func StreamVisibleAdapters(collection *ManagedObject, initiatedBy InteractionInitiatedBy) iter.Seq[*ManagedObject] {
	return func(yield func(*ManagedObject) bool) {
		for _, mo := range elementsOf(collection) {
			if !IsVisible(mo, initiatedBy) {
				continue
			}
			if !yield(mo) {
				return
			}
		}
	}
}

// VisiblePojos returns the pojos of the visible elements of a collection object.
func VisiblePojos(collection *ManagedObject, initiatedBy InteractionInitiatedBy) []any {
	var out []any
	for mo := range StreamVisibleAdapters(collection, initiatedBy) {
		out = append(out, mo.Pojo())
	}
	return out
}

func elementsOf(collection *ManagedObject) []*ManagedObject {
	if IsNullOrUnspecifiedOrEmpty(collection) {
		return nil
	}
	es := collection.spec.ElementSpecification()
	v := reflectValue(collection.pojo)
	if !v.IsValid() {
		return nil
	}
	out := make([]*ManagedObject, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		out = append(out, adapt(es, v.Index(i).Interface()))
	}
	return out
}
