// Package mapping maps entity specifications onto tables: one row per
// entity, one text column per persisted value property, each value held in
// its encoded string form.
package mapping

import (
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/properties"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/value"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/persistence"
	"github.com/conduit-lang/metamodel/internal/persistence/tracking"
	"github.com/conduit-lang/metamodel/internal/util/strings"
)

// Column is one persisted property.
type Column struct {
	Name     string
	Property *spec.Property
	Value    *value.Facet
	Key      bool
	NotNull  bool
}

// Encode returns the stored form of the column's value in pojo; nil stands
// for NULL.
func (c *Column) Encode(pojo any) (any, error) {
	return c.EncodeValue(c.Property.Value(pojo))
}

// EncodeValue encodes v as the column stores it.
func (c *Column) EncodeValue(v any) (any, error) {
	s, err := c.Value.ToEncodedString(v)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", c.Name, err)
	}
	if s == value.EncodedNull {
		return nil, nil
	}
	return s, nil
}

// Decode turns a stored column back into a property value.
func (c *Column) Decode(ns sql.NullString) (any, error) {
	if !ns.Valid {
		return c.Value.FromEncodedString(value.EncodedNull)
	}
	v, err := c.Value.FromEncodedString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", c.Name, err)
	}
	return v, nil
}

// Table is the mapping of one entity specification.
type Table struct {
	Name    string
	Spec    *spec.Specification
	Key     *Column
	Columns []*Column
}

var tables sync.Map

// Of returns the mapping of the entity specification s.
func Of(s *spec.Specification) (*Table, error) {
	if s == nil || !s.IsEntity() {
		return nil, persistence.ErrNotPersistable
	}
	if t, ok := tables.Load(s); ok {
		return t.(*Table), nil
	}
	t, err := build(s)
	if err != nil {
		return nil, err
	}
	actual, _ := tables.LoadOrStore(s, t)
	return actual.(*Table), nil
}

func build(s *spec.Specification) (*Table, error) {
	t := &Table{Name: strings.TableName(s.Type().Name()), Spec: s}
	if a, ok := facets.AnnotationsOf(s.Type()); ok && a.Object.Table != "" {
		t.Name = a.Object.Table
	}

	for _, p := range s.Properties() {
		if properties.IsNotPersisted(p.Holder()) {
			continue
		}
		ps := p.Specification()
		if ps == nil || !ps.IsValue() {
			continue
		}
		vf, ok := facetapi.Lookup[*value.Facet](ps.Holder(), value.FacetType)
		if !ok {
			continue
		}
		c := &Column{
			Name:     strings.ToSnakeCase(p.ID()),
			Property: p,
			Value:    vf,
			Key:      properties.IsKey(p.Holder()),
			NotNull:  properties.IsMandatory(p.Holder()),
		}
		if c.Key {
			if t.Key != nil {
				return nil, fmt.Errorf("%s: more than one key property", s.LogicalTypeName())
			}
			c.NotNull = true
			t.Key = c
			t.Columns = append([]*Column{c}, t.Columns...)
			continue
		}
		t.Columns = append(t.Columns, c)
	}
	if t.Key == nil {
		return nil, fmt.Errorf("%s: %w", s.LogicalTypeName(), persistence.ErrNoKey)
	}
	return t, nil
}

// Properties returns the properties of the columns, key first.
func (t *Table) Properties() []*spec.Property {
	out := make([]*spec.Property, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Property
	}
	return out
}

// Column returns the column of property id.
func (t *Table) Column(id string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Property.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// Row encodes the columns of pojo in column order.
func (t *Table) Row(pojo any) ([]any, error) {
	row := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		v, err := c.Encode(pojo)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// Assign decodes row, in column order, onto pojo.
func (t *Table) Assign(pojo any, row []sql.NullString) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("%s: got %d columns, want %d", t.Name, len(row), len(t.Columns))
	}
	for i, c := range t.Columns {
		v, err := c.Decode(row[i])
		if err != nil {
			return err
		}
		if err := c.Property.SetValue(pojo, v); err != nil {
			return err
		}
	}
	return nil
}

// New returns a fresh pointer to the entity type.
func (t *Table) New() any {
	return reflect.New(t.Spec.Type()).Interface()
}

// KeyOf returns the encoded key of pojo, or false while the key is unset.
func (t *Table) KeyOf(pojo any) (string, bool, error) {
	v := t.Key.Property.Value(pojo)
	if v == nil || reflect.ValueOf(v).IsZero() {
		return "", false, nil
	}
	s, err := t.Key.Value.ToEncodedString(v)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// DecodeKey turns an encoded key into a key property value.
func (t *Table) DecodeKey(id string) (any, error) {
	return t.Key.Value.FromEncodedString(id)
}

// AssignKey gives pojo a key unless it has one and returns the encoded key.
// String and UUID keys are random; integer keys come from next.
func (t *Table) AssignKey(pojo any, next func() (int64, error)) (string, error) {
	if id, ok, err := t.KeyOf(pojo); err != nil || ok {
		return id, err
	}

	kt := t.Key.Property.Type()
	var key any
	switch {
	case kt == reflect.TypeFor[uuid.UUID]():
		key = uuid.New()
	case kt.Kind() == reflect.String:
		key = reflect.ValueOf(uuid.NewString()).Convert(kt).Interface()
	case kt.Kind() >= reflect.Int && kt.Kind() <= reflect.Uint64:
		if next == nil {
			return "", fmt.Errorf("%s: no sequence for key %s", t.Name, t.Key.Name)
		}
		n, err := next()
		if err != nil {
			return "", err
		}
		key = reflect.ValueOf(n).Convert(kt).Interface()
	default:
		return "", fmt.Errorf("%s: cannot generate a %s key", t.Name, kt)
	}
	if err := t.Key.Property.SetValue(pojo, key); err != nil {
		return "", err
	}
	id, _, err := t.KeyOf(pojo)
	return id, err
}

// Snapshot takes the persisted state of pojo.
func (t *Table) Snapshot(pojo any) tracking.Snapshot {
	return tracking.Take(t.Properties(), pojo)
}
