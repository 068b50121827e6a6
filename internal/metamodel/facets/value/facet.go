// Package value implements value semantics: parsing text entry, encoding to
// and from a reversible string form, and locale-aware titles for the types
// that have no identity of their own.
package value

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Facet types contributed by value semantics
const (
	FacetType          = spec.ValueFacetType
	EncodableFacetType facetapi.FacetType = "EncodableFacet"
	DefaultedFacetType facetapi.FacetType = "DefaultedFacet"
)

// EncodedNull is the encoded form of a nil value.
const EncodedNull = "NULL"

// escape prefixes encoded strings that would read as EncodedNull or that
// start with escape themselves.
const escape = "!"

// Parser turns non-blank, trimmed text into a value of the base type.
type Parser interface {
	Parse(text string) (any, error)
}

// EncoderDecoder converts non-nil values of the base type to and from a
// string that round-trips exactly.
type EncoderDecoder interface {
	Encode(v any) (string, error)
	Decode(s string) (any, error)
}

// DefaultsProvider supplies the value a new instance starts with.
type DefaultsProvider interface {
	DefaultValue() any
}

// TitleFormatter renders non-nil values of the base type for display.
type TitleFormatter interface {
	Title(v any) string
	// TitleWithMask renders v with a one-off pattern.
	TitleWithMask(v any, mask string) string
}

// ParseResult is the outcome of a successful text entry.
type ParseResult struct {
	Value any
	// Absent is set when blank text was entered for a nullable type.
	Absent bool
}

// Facet is the value semantics of one adapted type.
type Facet struct {
	facetapi.Base

	adapted reflect.Type
	base    reflect.Type
	// pointerForm is set when adapted is *base and nil means absent.
	pointerForm bool
	nullable    bool

	typicalLength  int
	maxLength      int
	immutable      bool
	equalByContent bool

	parser   Parser
	encoder  EncoderDecoder
	defaults DefaultsProvider
	titles   TitleFormatter

	specs spec.SpecificationLoader
	spec  atomic.Pointer[spec.Specification]
}

// Type returns the adapted type.
func (f *Facet) Type() reflect.Type { return f.adapted }

// BaseType returns the type the capabilities operate on.
func (f *Facet) BaseType() reflect.Type { return f.base }

// IsNullable reports whether nil is a valid value.
func (f *Facet) IsNullable() bool { return f.nullable }

func (f *Facet) TypicalLength() int     { return f.typicalLength }
func (f *Facet) MaxLength() int         { return f.maxLength }
func (f *Facet) IsImmutable() bool      { return f.immutable }
func (f *Facet) IsEqualByContent() bool { return f.equalByContent }

// DefaultValue returns the default of the adapted type, if it has one.
func (f *Facet) DefaultValue() (any, bool) {
	if f.defaults == nil || f.pointerForm {
		return nil, false
	}
	return f.defaults.DefaultValue(), true
}

// ParseTextEntry parses what a user typed. Blank text is absent for a
// nullable type and a recoverable ErrEntryRequired otherwise.
func (f *Facet) ParseTextEntry(text string) (ParseResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		if f.nullable {
			return ParseResult{Absent: true}, nil
		}
		return ParseResult{}, entryRequired(text)
	}
	if f.parser == nil {
		return ParseResult{}, &ParseError{Text: text, Message: fmt.Sprintf("%s does not support text entry", f.adapted), Cause: ErrMalformed}
	}
	v, err := f.parser.Parse(trimmed)
	if err != nil {
		if IsParseError(err) {
			return ParseResult{}, err
		}
		return ParseResult{}, malformed(text, err)
	}
	return ParseResult{Value: f.wrap(v)}, nil
}

// ToEncodedString encodes v. Nil encodes as EncodedNull.
func (f *Facet) ToEncodedString(v any) (string, error) {
	base, ok, err := f.unwrap(v)
	if err != nil {
		return "", err
	}
	if !ok {
		return EncodedNull, nil
	}
	if f.encoder == nil {
		return "", fmt.Errorf("%s cannot be encoded", f.adapted)
	}
	s, err := f.encoder.Encode(base)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", f.adapted, err)
	}
	if s == EncodedNull || strings.HasPrefix(s, escape) {
		s = escape + s
	}
	return s, nil
}

// FromEncodedString reverses ToEncodedString.
func (f *Facet) FromEncodedString(s string) (any, error) {
	if s == EncodedNull {
		if f.pointerForm {
			return reflect.Zero(f.adapted).Interface(), nil
		}
		return nil, nil
	}
	if f.encoder == nil {
		return nil, fmt.Errorf("%s cannot be decoded", f.adapted)
	}
	v, err := f.encoder.Decode(strings.TrimPrefix(s, escape))
	if err != nil {
		return nil, fmt.Errorf("decoding %s from %q: %w", f.adapted, s, err)
	}
	return f.wrap(v), nil
}

// DisplayTitleOf renders v for display; nil renders as "".
func (f *Facet) DisplayTitleOf(v any) string {
	base, ok, err := f.unwrap(v)
	if err != nil || !ok {
		return ""
	}
	if f.titles == nil {
		return fmt.Sprint(base)
	}
	return f.titles.Title(base)
}

// DisplayTitleOfMask renders v with mask in place of the configured format.
func (f *Facet) DisplayTitleOfMask(v any, mask string) string {
	if mask == "" {
		return f.DisplayTitleOf(v)
	}
	base, ok, err := f.unwrap(v)
	if err != nil || !ok {
		return ""
	}
	if f.titles == nil {
		return fmt.Sprint(base)
	}
	return f.titles.TitleWithMask(base, mask)
}

// Specification returns the specification of the adapted type, resolving it
// on first use.
func (f *Facet) Specification() *spec.Specification {
	if s := f.spec.Load(); s != nil {
		return s
	}
	if f.specs == nil {
		return nil
	}
	s := f.specs.LoadSpecification(f.adapted)
	if s == nil {
		return nil
	}
	if f.spec.CompareAndSwap(nil, s) {
		return s
	}
	return f.spec.Load()
}

// AppendAttributes implements facetapi.Facet
func (f *Facet) AppendAttributes(attrs map[string]any) {
	f.Base.AppendAttributes(attrs)
	attrs["type"] = f.adapted.String()
	attrs["nullable"] = f.nullable
	attrs["typical_length"] = f.typicalLength
	if f.maxLength > 0 {
		attrs["max_length"] = f.maxLength
	}
	attrs["immutable"] = f.immutable
	attrs["equal_by_content"] = f.equalByContent
}

// wrap turns a base value into a value of the adapted type.
func (f *Facet) wrap(v any) any {
	if !f.pointerForm || v == nil {
		return v
	}
	p := reflect.New(f.base)
	p.Elem().Set(reflect.ValueOf(v))
	return p.Interface()
}

// unwrap returns the base value of v and whether it is present.
func (f *Facet) unwrap(v any) (any, bool, error) {
	if v == nil {
		return nil, false, nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type() == f.base:
		if f.nullable && rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, false, nil
		}
		return v, true, nil
	case f.pointerForm && rv.Type() == f.adapted:
		if rv.IsNil() {
			return nil, false, nil
		}
		return rv.Elem().Interface(), true, nil
	default:
		return nil, false, fmt.Errorf("expected %s, got %T", f.adapted, v)
	}
}

// DefaultedFacet supplies the default value of a feature.
type DefaultedFacet struct {
	facetapi.Base
	value func() any
}

// NewDefaultedFacet returns a defaulted facet producing a fresh value per call.
func NewDefaultedFacet(value func() any, opts ...facetapi.Option) *DefaultedFacet {
	return &DefaultedFacet{Base: facetapi.NewBase(DefaultedFacetType, opts...), value: value}
}

// Default returns the default value.
func (d *DefaultedFacet) Default() any {
	return d.value()
}

// AppendAttributes implements facetapi.Facet
func (d *DefaultedFacet) AppendAttributes(attrs map[string]any) {
	d.Base.AppendAttributes(attrs)
	attrs["default"] = fmt.Sprint(d.value())
}
