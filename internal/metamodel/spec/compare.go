package spec

import (
	"cmp"
	"fmt"
	"hash/fnv"
	"reflect"
	"strings"
)

// NaturalOrder is a total order over pojos: nulls first, then values of
// different types by type name, then within a type the natural order of
// ordered values, then equality, then identity hash.
type NaturalOrder struct {
	// Hash overrides the identity hash; nil uses IdentityHash.
	Hash func(any) uint64
}

// Compare orders two managed objects by their pojos.
func Compare(p, q *ManagedObject) int {
	return NaturalOrder{}.Compare(p, q)
}

// ComparePojos orders two pojos.
func ComparePojos(p, q any) int {
	return NaturalOrder{}.ComparePojos(p, q)
}

// Compare orders two managed objects by their pojos.
func (o NaturalOrder) Compare(p, q *ManagedObject) int {
	return o.ComparePojos(p.Pojo(), q.Pojo())
}

// ComparePojos never fails and is antisymmetric.
func (o NaturalOrder) ComparePojos(p, q any) int {
	pNil, qNil := isNil(p), isNil(q)
	switch {
	case pNil && qNil:
		return 0
	case pNil:
		return -1
	case qNil:
		return 1
	}

	if pt, qt := reflect.TypeOf(p), reflect.TypeOf(q); pt != qt {
		if c := strings.Compare(typeKey(pt), typeKey(qt)); c != 0 {
			return c
		}
		return tieBreak(p, q)
	}

	if c, ok := naturalCompare(p, q); ok {
		return c
	}
	if equal(p, q) {
		return 0
	}

	hash := o.Hash
	if hash == nil {
		hash = IdentityHash
	}
	if c := cmp.Compare(hash(p), hash(q)); c != 0 {
		return c
	}
	return tieBreak(p, q)
}

// naturalCompare compares p and q when both have the same type and that
// type is ordered: a Go ordered kind, or a Compare/Cmp method.
func naturalCompare(p, q any) (int, bool) {
	pv, qv := reflect.ValueOf(p), reflect.ValueOf(q)
	if pv.Type() != qv.Type() {
		return 0, false
	}
	for _, name := range []string{"Compare", "Cmp"} {
		m := pv.MethodByName(name)
		if !m.IsValid() {
			continue
		}
		mt := m.Type()
		if mt.NumIn() == 1 && mt.NumOut() == 1 && qv.Type().AssignableTo(mt.In(0)) && mt.Out(0).Kind() == reflect.Int {
			return sign(int(m.Call([]reflect.Value{qv})[0].Int())), true
		}
	}
	switch pv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(pv.Int(), qv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(pv.Uint(), qv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(pv.Float(), qv.Float()), true
	case reflect.String:
		return cmp.Compare(pv.String(), qv.String()), true
	case reflect.Bool:
		return cmp.Compare(boolInt(pv.Bool()), boolInt(qv.Bool())), true
	}
	return 0, false
}

func equal(p, q any) bool {
	if reflect.TypeOf(p) != reflect.TypeOf(q) {
		return false
	}
	if m := reflect.ValueOf(p).MethodByName("Equal"); m.IsValid() {
		mt := m.Type()
		if mt.NumIn() == 1 && mt.NumOut() == 1 && mt.Out(0).Kind() == reflect.Bool &&
			reflect.TypeOf(q).AssignableTo(mt.In(0)) {
			return m.Call([]reflect.Value{reflect.ValueOf(q)})[0].Bool()
		}
	}
	if reflect.TypeOf(p).Comparable() {
		return p == q
	}
	return reflect.DeepEqual(p, q)
}

// IdentityHash hashes pointers by address and other values by content.
func IdentityHash(v any) uint64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return uint64(rv.Pointer())
	case reflect.Slice:
		return uint64(rv.Pointer()) ^ uint64(rv.Len())
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(repr(v)))
	return h.Sum64()
}

// tieBreak orders distinct values whose hashes collide: by address for
// pointers, then by type and printed content.
func tieBreak(p, q any) int {
	pv, qv := reflect.ValueOf(p), reflect.ValueOf(q)
	if pv.Kind() == reflect.Pointer && qv.Kind() == reflect.Pointer {
		if c := cmp.Compare(pv.Pointer(), qv.Pointer()); c != 0 {
			return c
		}
	}
	return strings.Compare(repr(p), repr(q))
}

// typeKey names t by package path and type string; distinct types share a
// key only when declared in different scopes of one package.
func typeKey(t reflect.Type) string {
	named := t
	for named.Name() == "" && (named.Kind() == reflect.Pointer || named.Kind() == reflect.Slice ||
		named.Kind() == reflect.Array || named.Kind() == reflect.Map) {
		named = named.Elem()
	}
	return named.PkgPath() + " " + t.String()
}

func repr(v any) string {
	return fmt.Sprintf("%T:%#v", v, v)
}

func sign(i int) int {
	switch {
	case i < 0:
		return -1
	case i > 0:
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// OrderingBy returns a comparison of managed objects by the value of
// property, for use with slices.SortFunc.
func OrderingBy(property *Property, ascending bool) func(a, b *ManagedObject) int {
	return func(a, b *ManagedObject) int {
		c := ComparePojos(propertyValue(property, a), propertyValue(property, b))
		if !ascending {
			return -c
		}
		return c
	}
}

func propertyValue(p *Property, mo *ManagedObject) any {
	if IsNullOrUnspecifiedOrEmpty(mo) {
		return nil
	}
	return p.Value(mo.Pojo())
}
