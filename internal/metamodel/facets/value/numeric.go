package value

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// Named number styles.
const (
	StylePlain   = "plain"
	StyleGrouped = "grouped"
)

var (
	integerMask = Mask{Grouping: true}
	decimalMask = Mask{Grouping: true, MaxFraction: 3}
)

var numberStyles = map[string]func(fallback Mask) Mask{
	StyleMedium:  func(m Mask) Mask { return m },
	StyleGrouped: withGrouping(true),
	StylePlain:   withGrouping(false),
}

func withGrouping(grouping bool) func(Mask) Mask {
	return func(m Mask) Mask {
		m.Grouping = grouping
		return m
	}
}

// resolveMask interprets a configured numeric format.
func resolveMask(configured string, patterns map[string]string, fallback Mask) Mask {
	return ResolveFormatter(configured,
		func(s string) (Mask, bool) {
			style, ok := numberStyles[strings.ToLower(s)]
			if !ok {
				return Mask{}, false
			}
			return style(fallback), true
		},
		func(s string) (Mask, bool) {
			pattern, ok := patterns[s]
			if !ok {
				return Mask{}, false
			}
			return ParseMask(pattern)
		},
		ParseMask,
		fallback,
	)
}

func rangeError(text string, t reflect.Type, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return &ParseError{Text: text, Message: fmt.Sprintf("out of range for %s", t), Cause: ErrMalformed}
	}
	return malformed(text, err)
}

type intProvider struct {
	typ     reflect.Type
	bits    int
	locale  Locale
	mask    Mask
	pattern map[string]string
}

func newIntProvider(t reflect.Type, env Env) *intProvider {
	return &intProvider{
		typ:     t,
		bits:    t.Bits(),
		locale:  env.Locale,
		mask:    resolveMask(env.Format, env.Patterns, integerMask),
		pattern: env.Patterns,
	}
}

func (p *intProvider) Parse(text string) (any, error) {
	n, err := strconv.ParseInt(p.locale.Normalize(text), 10, p.bits)
	if err != nil {
		return nil, rangeError(text, p.typ, err)
	}
	return reflect.ValueOf(n).Convert(p.typ).Interface(), nil
}

func (p *intProvider) Encode(v any) (string, error) {
	return strconv.FormatInt(reflect.ValueOf(v).Int(), 10), nil
}

func (p *intProvider) Decode(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, p.bits)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(n).Convert(p.typ).Interface(), nil
}

func (p *intProvider) DefaultValue() any {
	return reflect.Zero(p.typ).Interface()
}

func (p *intProvider) Title(v any) string {
	return p.locale.FormatNumber(reflect.ValueOf(v).Int(), p.mask.Options()...)
}

func (p *intProvider) TitleWithMask(v any, mask string) string {
	m := resolveMask(mask, p.pattern, p.mask)
	return p.locale.FormatNumber(reflect.ValueOf(v).Int(), m.Options()...)
}

type floatProvider struct {
	typ     reflect.Type
	bits    int
	locale  Locale
	mask    Mask
	pattern map[string]string
}

func newFloatProvider(t reflect.Type, env Env) *floatProvider {
	return &floatProvider{
		typ:     t,
		bits:    t.Bits(),
		locale:  env.Locale,
		mask:    resolveMask(env.Format, env.Patterns, decimalMask),
		pattern: env.Patterns,
	}
}

func (p *floatProvider) Parse(text string) (any, error) {
	f, err := strconv.ParseFloat(p.locale.Normalize(text), p.bits)
	if err != nil {
		return nil, rangeError(text, p.typ, err)
	}
	return reflect.ValueOf(f).Convert(p.typ).Interface(), nil
}

func (p *floatProvider) Encode(v any) (string, error) {
	return strconv.FormatFloat(reflect.ValueOf(v).Float(), 'g', -1, p.bits), nil
}

func (p *floatProvider) Decode(s string) (any, error) {
	f, err := strconv.ParseFloat(s, p.bits)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(f).Convert(p.typ).Interface(), nil
}

func (p *floatProvider) DefaultValue() any {
	return reflect.Zero(p.typ).Interface()
}

func (p *floatProvider) Title(v any) string {
	return p.locale.FormatNumber(reflect.ValueOf(v).Float(), p.mask.Options()...)
}

func (p *floatProvider) TitleWithMask(v any, mask string) string {
	m := resolveMask(mask, p.pattern, p.mask)
	return p.locale.FormatNumber(reflect.ValueOf(v).Float(), m.Options()...)
}

type bigIntProvider struct {
	locale  Locale
	mask    Mask
	pattern map[string]string
}

func newBigIntProvider(env Env) *bigIntProvider {
	return &bigIntProvider{
		locale:  env.Locale,
		mask:    resolveMask(env.Format, env.Patterns, integerMask),
		pattern: env.Patterns,
	}
}

func (p *bigIntProvider) Parse(text string) (any, error) {
	n, ok := new(big.Int).SetString(p.locale.Normalize(text), 10)
	if !ok {
		return nil, errors.New("not an integer")
	}
	return n, nil
}

func (p *bigIntProvider) Encode(v any) (string, error) {
	return v.(*big.Int).String(), nil
}

func (p *bigIntProvider) Decode(s string) (any, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

func (p *bigIntProvider) Title(v any) string {
	return p.format(v.(*big.Int), p.mask)
}

func (p *bigIntProvider) TitleWithMask(v any, mask string) string {
	return p.format(v.(*big.Int), resolveMask(mask, p.pattern, p.mask))
}

func (p *bigIntProvider) format(n *big.Int, m Mask) string {
	digits := n.String()
	if m.Grouping {
		digits = p.locale.GroupDigits(digits)
	}
	if m.MinFraction > 0 {
		digits += p.locale.DecimalSeparator() + strings.Repeat("0", m.MinFraction)
	}
	return digits
}

// maxRatFraction bounds the digits shown for a non-terminating fraction.
const maxRatFraction = 16

type bigRatProvider struct {
	locale  Locale
	mask    Mask
	pattern map[string]string
}

func newBigRatProvider(env Env) *bigRatProvider {
	return &bigRatProvider{
		locale: env.Locale,
		// a negative MaxFraction shows every significant digit
		mask:    resolveMask(env.Format, env.Patterns, Mask{Grouping: true, MaxFraction: -1}),
		pattern: env.Patterns,
	}
}

func (p *bigRatProvider) Parse(text string) (any, error) {
	r, ok := new(big.Rat).SetString(p.locale.Normalize(text))
	if !ok {
		return nil, errors.New("not a decimal number")
	}
	return r, nil
}

func (p *bigRatProvider) Encode(v any) (string, error) {
	r := v.(*big.Rat)
	if n, exact := r.FloatPrec(); exact {
		return r.FloatString(n), nil
	}
	return r.RatString(), nil
}

func (p *bigRatProvider) Decode(s string) (any, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal number", s)
	}
	return r, nil
}

func (p *bigRatProvider) Title(v any) string {
	return p.format(v.(*big.Rat), p.mask)
}

func (p *bigRatProvider) TitleWithMask(v any, mask string) string {
	m := resolveMask(mask, p.pattern, p.mask)
	return p.format(v.(*big.Rat), m)
}

func (p *bigRatProvider) format(r *big.Rat, m Mask) string {
	prec := m.MaxFraction
	if prec < 0 {
		n, exact := r.FloatPrec()
		prec = n
		if !exact {
			prec = maxRatFraction
		}
	}
	s := r.FloatString(prec)
	intPart, frac, _ := strings.Cut(s, ".")
	for len(frac) > m.MinFraction && strings.HasSuffix(frac, "0") && m.MaxFraction >= 0 {
		frac = frac[:len(frac)-1]
	}
	if m.Grouping {
		intPart = p.locale.GroupDigits(intPart)
	}
	if frac == "" {
		return intPart
	}
	return intPart + p.locale.DecimalSeparator() + frac
}
