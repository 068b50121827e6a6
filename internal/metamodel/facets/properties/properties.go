// Package properties describes how properties are read, whether they are
// required, persisted or keys, and how long their text may be.
package properties

import (
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
)

// Facet types contributed by this package
const (
	AccessorFacetType     facetapi.FacetType = "PropertyAccessorFacet"
	MandatoryFacetType    facetapi.FacetType = "MandatoryFacet"
	NotPersistedFacetType facetapi.FacetType = "NotPersistedFacet"
	DigitsFacetType       facetapi.FacetType = "BigDecimalDigitsFacet"
	MaxLengthFacetType    facetapi.FacetType = "MaxLengthFacet"
	KeyFacetType          facetapi.FacetType = "KeyFacet"
)

// AccessorFacet reads a field of the owning struct.
type AccessorFacet struct {
	facetapi.Base
	index []int
}

// Get returns the field's value, or nil when pojo is nil or the path
// crosses a nil embedded pointer.
func (f *AccessorFacet) Get(pojo any) any {
	v := reflect.ValueOf(pojo)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	fv, err := v.FieldByIndexErr(f.index)
	if err != nil {
		return nil
	}
	return fv.Interface()
}

// PropertyAccessorFacetFactory binds each property to its field.
type PropertyAccessorFacetFactory struct{}

func (PropertyAccessorFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.NewFeatureSet(facetapi.Property, facetapi.Collection)
}

func (PropertyAccessorFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	return ctx.AddFacet(&AccessorFacet{Base: facetapi.NewBase(AccessorFacetType), index: ctx.Field.Index})
}

// MandatoryFacet records whether a property or parameter needs a value.
type MandatoryFacet struct {
	facetapi.Base
	Mandatory bool
}

func (f *MandatoryFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["mandatory"] = f.Mandatory
}

// NewMandatoryFacet returns a mandatory facet.
func NewMandatoryFacet(mandatory bool, opts ...facetapi.Option) *MandatoryFacet {
	return &MandatoryFacet{Base: facetapi.NewBase(MandatoryFacetType, opts...), Mandatory: mandatory}
}

// IsMandatory reports whether h requires a value.
func IsMandatory(h *facetapi.Holder) bool {
	f, ok := facetapi.Lookup[*MandatoryFacet](h, MandatoryFacetType)
	return ok && f.Mandatory
}

// Nillable reports whether the zero value of t is nil.
func Nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	return false
}

// MandatoryFacetFactory makes properties mandatory unless they are tagged
// optional or can be nil, and parameters optional when declared so or
// when they can be nil.
type MandatoryFacetFactory struct{}

func (MandatoryFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.PropertiesAndParameters
}

func (MandatoryFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	if ctx.Field.Tag.Has("optional") {
		return ctx.AddFacet(NewMandatoryFacet(false))
	}
	return ctx.AddFacet(NewMandatoryFacet(!Nillable(ctx.Field.Type), facetapi.Derived()))
}

func (MandatoryFacetFactory) ProcessParameter(ctx *facets.ProcessParameterContext) error {
	if ctx.Annotated && slices.Contains(ctx.Annotation.Optional, ctx.Index) {
		return ctx.AddFacet(NewMandatoryFacet(false))
	}
	if Nillable(ctx.Type) {
		return ctx.AddFacet(NewMandatoryFacet(false, facetapi.Derived()))
	}
	return nil
}

// NotPersistedFacet excludes a property of an entity from its store.
type NotPersistedFacet struct {
	facetapi.Base
}

// IsNotPersisted reports whether h is excluded from persistence.
func IsNotPersisted(h *facetapi.Holder) bool {
	return h.Contains(NotPersistedFacetType)
}

// NotPersistedFacetFactory reads the notpersisted tag on entity properties.
type NotPersistedFacetFactory struct{}

func (NotPersistedFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.PropertiesOnly
}

func (NotPersistedFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	if ctx.Class.Annotations.Object.Nature != applib.NatureEntity || !ctx.Field.Tag.Has("notpersisted") {
		return nil
	}
	return ctx.AddFacet(&NotPersistedFacet{Base: facetapi.NewBase(NotPersistedFacetType)})
}

// MaxLengthFacet bounds the length of a property's text.
type MaxLengthFacet interface {
	facetapi.Facet
	MaxLength() int
}

// DigitsFacet bounds the integer and fraction digits of a decimal.
type DigitsFacet struct {
	facetapi.Base
	Integer  int
	Fraction int
}

// MaxLength counts sign, digits and decimal point.
func (f *DigitsFacet) MaxLength() int {
	n := 1 + f.Integer + f.Fraction
	if f.Fraction > 0 {
		n++
	}
	return n
}

// Check reports whether r fits the digits.
func (f *DigitsFacet) Check(r *big.Rat) error {
	if r == nil {
		return nil
	}
	if n, exact := r.FloatPrec(); !exact || n > f.Fraction {
		return fmt.Errorf("more than %d fraction digits", f.Fraction)
	}
	whole := new(big.Int).Quo(r.Num(), r.Denom())
	if digits := len(whole.Abs(whole).String()); digits > f.Integer {
		return fmt.Errorf("more than %d integer digits", f.Integer)
	}
	return nil
}

func (f *DigitsFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["integer"] = f.Integer
	attrs["fraction"] = f.Fraction
}

var ratType = reflect.TypeFor[*big.Rat]()

// BigDecimalDigitsFacetFactory reads digits=I:F on *big.Rat fields. The
// facet also serves as the field's MaxLengthFacet.
type BigDecimalDigitsFacetFactory struct{}

func (BigDecimalDigitsFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.PropertiesOnly
}

func (BigDecimalDigitsFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	raw := ctx.Field.Tag.Get("digits")
	if raw == "" || ctx.Field.Type != ratType {
		return nil
	}
	intPart, fracPart, _ := strings.Cut(raw, ":")
	integer, err := strconv.Atoi(intPart)
	if err != nil {
		return fmt.Errorf("invalid digits %q: %w", raw, err)
	}
	fraction := 0
	if fracPart != "" {
		if fraction, err = strconv.Atoi(fracPart); err != nil {
			return fmt.Errorf("invalid digits %q: %w", raw, err)
		}
	}
	return ctx.AddFacet(&DigitsFacet{
		Base:     facetapi.NewBase(DigitsFacetType, facetapi.WithAlias(MaxLengthFacetType)),
		Integer:  integer,
		Fraction: fraction,
	})
}

type maxLengthFacet struct {
	facetapi.Base
	max int
}

func (f *maxLengthFacet) MaxLength() int { return f.max }

func (f *maxLengthFacet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["max_length"] = f.max
}

// MaxLengthFacetFactory reads maxlength=N.
type MaxLengthFacetFactory struct{}

func (MaxLengthFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.PropertiesOnly
}

func (MaxLengthFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	raw := ctx.Field.Tag.Get("maxlength")
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid maxlength %q", raw)
	}
	return ctx.AddFacet(&maxLengthFacet{Base: facetapi.NewBase(MaxLengthFacetType), max: n})
}

// MaxLengthOf returns the maximum text length on h, or 0.
func MaxLengthOf(h *facetapi.Holder) int {
	if f, ok := facetapi.Lookup[MaxLengthFacet](h, MaxLengthFacetType); ok {
		return f.MaxLength()
	}
	return 0
}

// KeyFacet marks the property identifying an entity in its store.
type KeyFacet struct {
	facetapi.Base
}

// KeyFacetFactory reads the key tag.
type KeyFacetFactory struct{}

func (KeyFacetFactory) FeatureTypes() facetapi.FeatureSet {
	return facetapi.PropertiesOnly
}

func (KeyFacetFactory) ProcessProperty(ctx *facets.ProcessPropertyContext) error {
	if !ctx.Field.Tag.Has("key") {
		return nil
	}
	return ctx.AddFacet(&KeyFacet{Base: facetapi.NewBase(KeyFacetType)})
}

// IsKey reports whether h is the key property.
func IsKey(h *facetapi.Holder) bool {
	return h.Contains(KeyFacetType)
}
