// Package introspect renders specifications and managed objects as plain
// data for the HTTP API and the command line.
package introspect

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/named"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets/value"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
	"github.com/conduit-lang/metamodel/internal/metamodel/validation"
)

// TypeSummary is one line of a type listing.
type TypeSummary struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Sort        string `json:"sort" yaml:"sort"`
	Properties  int    `json:"properties" yaml:"properties"`
	Collections int    `json:"collections" yaml:"collections"`
	Actions     int    `json:"actions" yaml:"actions"`
}

// TypeDescription is the full metadata of one type.
type TypeDescription struct {
	TypeSummary `yaml:",inline"`
	GoType      string              `json:"go_type" yaml:"go_type"`
	Facets      []FacetDescription  `json:"facets,omitempty" yaml:"facets,omitempty"`
	Members     []MemberDescription `json:"members,omitempty" yaml:"members,omitempty"`
}

// MemberDescription describes a property, collection or action.
type MemberDescription struct {
	ID          string                 `json:"id" yaml:"id"`
	Identifier  string                 `json:"identifier" yaml:"identifier"`
	Feature     string                 `json:"feature" yaml:"feature"`
	DisplayName string                 `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Type        string                 `json:"type,omitempty" yaml:"type,omitempty"`
	MixedInFrom string                 `json:"mixed_in_from,omitempty" yaml:"mixed_in_from,omitempty"`
	Facets      []FacetDescription     `json:"facets,omitempty" yaml:"facets,omitempty"`
	Parameters  []ParameterDescription `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// ParameterDescription describes one action parameter.
type ParameterDescription struct {
	Index       int                `json:"index" yaml:"index"`
	DisplayName string             `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Type        string             `json:"type" yaml:"type"`
	Facets      []FacetDescription `json:"facets,omitempty" yaml:"facets,omitempty"`
}

// FacetDescription is the attribute view of one facet.
type FacetDescription struct {
	Type       string         `json:"type" yaml:"type"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// ObjectDescription is the state of one managed object, properties rendered
// with their encoded value form.
type ObjectDescription struct {
	Type       string            `json:"type" yaml:"type"`
	Identifier string            `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Title      string            `json:"title" yaml:"title"`
	State      string            `json:"state,omitempty" yaml:"state,omitempty"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// FailureDescription is one validation failure.
type FailureDescription struct {
	Identifier string `json:"identifier" yaml:"identifier"`
	Message    string `json:"message" yaml:"message"`
}

// Summarize lists specs in the given order.
func Summarize(specs []*spec.Specification) []TypeSummary {
	out := make([]TypeSummary, 0, len(specs))
	for _, s := range specs {
		out = append(out, summary(s))
	}
	return out
}

func summary(s *spec.Specification) TypeSummary {
	return TypeSummary{
		Name:        s.LogicalTypeName(),
		DisplayName: named.NameOf(s.Holder()),
		Sort:        s.BeanSort().String(),
		Properties:  len(s.Properties()),
		Collections: len(s.Collections()),
		Actions:     len(s.Actions()),
	}
}

// Describe renders s with its facets and members.
func Describe(s *spec.Specification) TypeDescription {
	d := TypeDescription{
		TypeSummary: summary(s),
		GoType:      typeName(s.Type()),
		Facets:      Facets(s.Holder()),
	}
	for _, m := range s.Members() {
		d.Members = append(d.Members, DescribeMember(m))
	}
	return d
}

// DescribeMember renders one member.
func DescribeMember(m spec.Member) MemberDescription {
	d := MemberDescription{
		ID:          m.ID(),
		Identifier:  m.Identifier().String(),
		Feature:     m.FeatureType().String(),
		DisplayName: named.NameOf(m.Holder()),
		Facets:      Facets(m.Holder()),
	}
	switch m := m.(type) {
	case *spec.Property:
		d.Type = typeName(m.Type())
	case *spec.Collection:
		d.Type = "[]" + typeName(m.ElementType())
	case *spec.Action:
		d.Type = typeName(m.ReturnType())
		if m.IsMixedIn() {
			d.MixedInFrom = m.Mixin().LogicalTypeName()
		}
		for _, p := range m.Parameters() {
			d.Parameters = append(d.Parameters, ParameterDescription{
				Index:       p.Index(),
				DisplayName: named.NameOf(p.Holder()),
				Type:        typeName(p.Type()),
				Facets:      Facets(p.Holder()),
			})
		}
	}
	return d
}

// Facets renders the active facets of h sorted by facet type.
func Facets(h *facetapi.Holder) []FacetDescription {
	if h == nil {
		return nil
	}
	var out []FacetDescription
	for f := range h.Facets() {
		attrs := facetapi.Attributes(f)
		delete(attrs, "facet")
		if len(attrs) == 0 {
			attrs = nil
		}
		out = append(out, FacetDescription{Type: string(f.FacetType()), Attributes: attrs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Object renders mo. Properties whose type has no value semantics are
// skipped, as are hidden references to other objects.
func Object(mo *spec.ManagedObject) (ObjectDescription, error) {
	if !spec.IsSpecified(mo) {
		return ObjectDescription{}, fmt.Errorf("cannot describe an unspecified object")
	}
	s := mo.Specification()
	d := ObjectDescription{
		Type:  s.LogicalTypeName(),
		Title: mo.Title(),
	}
	if b, ok := spec.Identify(mo); ok {
		d.Identifier = b.Identifier
	}
	if s.IsEntity() {
		d.State = mo.EntityState().String()
	}
	if mo.IsEmpty() || s.IsValue() {
		return d, nil
	}

	d.Properties = make(map[string]string, len(s.Properties()))
	for _, p := range s.Properties() {
		ps := p.Specification()
		if ps == nil {
			continue
		}
		vf, ok := facetapi.Lookup[*value.Facet](ps.Holder(), value.FacetType)
		if !ok {
			continue
		}
		encoded, err := vf.ToEncodedString(p.Value(mo.Pojo()))
		if err != nil {
			return ObjectDescription{}, fmt.Errorf("failed to encode %s: %w", p.Identifier(), err)
		}
		d.Properties[p.ID()] = encoded
	}
	return d, nil
}

// Failures renders a validation report.
func Failures(r *validation.Report) []FailureDescription {
	failures := r.Failures()
	out := make([]FailureDescription, 0, len(failures))
	for _, f := range failures {
		out = append(out, FailureDescription{Identifier: f.Identifier.String(), Message: f.Message})
	}
	return out
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
