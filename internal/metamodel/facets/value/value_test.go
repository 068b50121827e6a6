package value

import (
	"math"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metamodel/applib"
	"github.com/conduit-lang/metamodel/internal/config"
	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/facets"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

func facetFor[T any](t *testing.T, r *Registry) *Facet {
	t.Helper()
	f, ok := r.FacetFor(reflect.TypeFor[T](), nil)
	require.True(t, ok, "%s is not a value type", reflect.TypeFor[T]())
	return f
}

func ptr[T any](v T) *T { return &v }

func TestParseTextEntry_Int8(t *testing.T) {
	r := NewRegistry(nil)
	f := facetFor[int8](t, r)

	tests := []struct {
		name    string
		text    string
		want    any
		wantErr error
	}{
		{"leading zero", "042", int8(42), nil},
		{"surrounding blanks", "  7 ", int8(7), nil},
		{"lower bound", "-128", int8(-128), nil},
		{"upper bound", "127", int8(127), nil},
		{"overflow", "128", nil, ErrMalformed},
		{"not a number", "forty", nil, ErrMalformed},
		{"blank", "   ", nil, ErrEntryRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.ParseTextEntry(tt.text)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsParseError(err))
				return
			}
			require.NoError(t, err)
			assert.False(t, res.Absent)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestParseTextEntry_PointerFormIsNullable(t *testing.T) {
	r := NewRegistry(nil)
	f := facetFor[*int8](t, r)

	assert.True(t, f.IsNullable())
	assert.Equal(t, reflect.TypeFor[*int8](), f.Type())
	assert.Equal(t, reflect.TypeFor[int8](), f.BaseType())

	res, err := f.ParseTextEntry("")
	require.NoError(t, err)
	assert.True(t, res.Absent)
	assert.Nil(t, res.Value)

	res, err = f.ParseTextEntry("5")
	require.NoError(t, err)
	assert.Equal(t, ptr(int8(5)), res.Value)

	_, hasDefault := f.DefaultValue()
	assert.False(t, hasDefault)
}

func TestEncoding_RoundTrip(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name  string
		facet *Facet
		value any
	}{
		{"int8 min", facetFor[int8](t, r), int8(math.MinInt8)},
		{"int8 max", facetFor[int8](t, r), int8(math.MaxInt8)},
		{"int64 min", facetFor[int64](t, r), int64(math.MinInt64)},
		{"int", facetFor[int](t, r), 42},
		{"float64", facetFor[float64](t, r), 0.1},
		{"float32", facetFor[float32](t, r), float32(3.14159)},
		{"bool", facetFor[bool](t, r), true},
		{"string", facetFor[string](t, r), "hello"},
		{"string equal to the null sentinel", facetFor[string](t, r), "NULL"},
		{"string starting with the escape", facetFor[string](t, r), "!NULL"},
		{"empty string", facetFor[string](t, r), ""},
		{"uuid", facetFor[uuid.UUID](t, r), uuid.MustParse("0b5c3e1e-5d2f-4a8e-9f13-6a1a2c3d4e5f")},
		{"local date", facetFor[applib.LocalDate](t, r), applib.LocalDate{Year: 2024, Month: time.February, Day: 29}},
		{"local time", facetFor[applib.LocalTime](t, r), applib.LocalTime{Hour: 23, Minute: 59, Second: 58, Nanosecond: 123456789}},
		{"local date time", facetFor[applib.LocalDateTime](t, r), applib.LocalDateTime{
			Date: applib.LocalDate{Year: 1999, Month: time.December, Day: 31},
			Time: applib.LocalTime{Hour: 12, Minute: 30},
		}},
		{"earliest local date", facetFor[applib.LocalDate](t, r), applib.LocalDate{Year: 0, Month: time.January, Day: 1}},
		{"latest local date", facetFor[applib.LocalDate](t, r), applib.LocalDate{Year: 9999, Month: time.December, Day: 31}},
		{"latest local date time", facetFor[applib.LocalDateTime](t, r), applib.LocalDateTime{
			Date: applib.LocalDate{Year: 9999, Month: time.December, Day: 31},
			Time: applib.LocalTime{Hour: 23, Minute: 59, Second: 59, Nanosecond: 999999999},
		}},
		{"pointer to int16", facetFor[*int16](t, r), ptr(int16(-300))},
		{"nil pointer", facetFor[*int16](t, r), (*int16)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.facet.ToEncodedString(tt.value)
			require.NoError(t, err)

			decoded, err := tt.facet.FromEncodedString(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.value, decoded)
		})
	}
}

func TestEncoding_OffsetDateTimeRoundTrip(t *testing.T) {
	f := facetFor[time.Time](t, NewRegistry(nil))

	for _, v := range []time.Time{
		time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.FixedZone("", 14*3600)),
		time.Date(0, time.January, 1, 0, 0, 0, 0, time.FixedZone("", -(9*3600+30*60))),
		time.Date(2024, time.June, 1, 8, 0, 0, 1, time.UTC),
	} {
		encoded, err := f.ToEncodedString(v)
		require.NoError(t, err, v)

		decoded, err := f.FromEncodedString(encoded)
		require.NoError(t, err, encoded)
		assert.True(t, v.Equal(decoded.(time.Time)), "%v != %v", v, decoded)
	}
}

func TestEncoding_RejectsUnencodableTemporals(t *testing.T) {
	r := NewRegistry(nil)
	dates := facetFor[applib.LocalDate](t, r)
	instants := facetFor[time.Time](t, r)

	tests := []struct {
		name  string
		facet *Facet
		value any
		want  string
	}{
		{"date after year 9999", dates, applib.LocalDate{Year: 10000, Month: time.January, Day: 1}, "year 10000"},
		{"date before year 0", dates, applib.LocalDate{Year: -1, Month: time.January, Day: 1}, "year -1"},
		{"instant after year 9999", instants, time.Date(10000, time.January, 1, 0, 0, 0, 0, time.UTC), "year 10000"},
		{"offset with seconds", instants, time.Date(1880, time.January, 1, 0, 0, 0, 0, time.FixedZone("LMT", 3600+15)), "whole minute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.facet.ToEncodedString(tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEncoding_NullSentinel(t *testing.T) {
	r := NewRegistry(nil)
	f := facetFor[string](t, r)

	encoded, err := f.ToEncodedString(nil)
	require.NoError(t, err)
	assert.Equal(t, EncodedNull, encoded)

	decoded, err := f.FromEncodedString(EncodedNull)
	require.NoError(t, err)
	assert.Nil(t, decoded)

	encoded, err = f.ToEncodedString("NULL")
	require.NoError(t, err)
	assert.NotEqual(t, EncodedNull, encoded)
}

func TestEncoding_RejectsForeignType(t *testing.T) {
	f := facetFor[int8](t, NewRegistry(nil))

	_, err := f.ToEncodedString("seven")
	assert.Error(t, err)
}

func TestEncoding_BigNumbers(t *testing.T) {
	r := NewRegistry(nil)

	t.Run("rational with a terminating decimal", func(t *testing.T) {
		f := facetFor[*big.Rat](t, r)
		encoded, err := f.ToEncodedString(big.NewRat(25, 2))
		require.NoError(t, err)
		assert.Equal(t, "12.5", encoded)
	})

	t.Run("rational without a terminating decimal", func(t *testing.T) {
		f := facetFor[*big.Rat](t, r)
		third := big.NewRat(1, 3)
		encoded, err := f.ToEncodedString(third)
		require.NoError(t, err)
		decoded, err := f.FromEncodedString(encoded)
		require.NoError(t, err)
		assert.Zero(t, third.Cmp(decoded.(*big.Rat)))
	})

	t.Run("nil big int", func(t *testing.T) {
		f := facetFor[*big.Int](t, r)
		assert.True(t, f.IsNullable())
		encoded, err := f.ToEncodedString((*big.Int)(nil))
		require.NoError(t, err)
		assert.Equal(t, EncodedNull, encoded)
	})

	t.Run("big int beyond int64", func(t *testing.T) {
		f := facetFor[*big.Int](t, r)
		n, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
		encoded, err := f.ToEncodedString(n)
		require.NoError(t, err)
		decoded, err := f.FromEncodedString(encoded)
		require.NoError(t, err)
		assert.Zero(t, n.Cmp(decoded.(*big.Int)))
	})
}

func TestEncoding_OffsetDateTimeKeepsInstant(t *testing.T) {
	f := facetFor[time.Time](t, NewRegistry(nil))
	when := time.Date(2024, time.March, 1, 10, 15, 30, 500, time.FixedZone("CET", 3600))

	encoded, err := f.ToEncodedString(when)
	require.NoError(t, err)
	decoded, err := f.FromEncodedString(encoded)
	require.NoError(t, err)
	assert.True(t, when.Equal(decoded.(time.Time)))
}

func TestDisplayTitleOf_Nil(t *testing.T) {
	r := NewRegistry(nil)
	for _, typ := range r.Types() {
		f, ok := r.FacetFor(typ, nil)
		require.True(t, ok)
		assert.Equal(t, "", f.DisplayTitleOf(nil), typ.String())
		assert.Equal(t, "", f.DisplayTitleOfMask(nil, "#"), typ.String())
	}
	assert.Equal(t, "", facetFor[*int32](t, r).DisplayTitleOf((*int32)(nil)))
}

func TestDisplayTitleOf(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, "1,234", facetFor[int](t, r).DisplayTitleOf(1234))
	assert.Equal(t, "1,234", facetFor[*int](t, r).DisplayTitleOf(ptr(1234)))
	assert.Equal(t, "1234", facetFor[int](t, r).DisplayTitleOfMask(1234, "plain"))
	assert.Equal(t, "1,234,567", facetFor[*big.Int](t, r).DisplayTitleOf(big.NewInt(1234567)))
	assert.Equal(t, "12.5", facetFor[*big.Rat](t, r).DisplayTitleOf(big.NewRat(25, 2)))
	assert.Equal(t, "12.50", facetFor[*big.Rat](t, r).DisplayTitleOfMask(big.NewRat(25, 2), "#,##0.00"))
	assert.Equal(t, "true", facetFor[bool](t, r).DisplayTitleOf(true))

	date := applib.LocalDate{Year: 2024, Month: time.March, Day: 1}
	assert.Equal(t, "Mar 1, 2024", facetFor[applib.LocalDate](t, r).DisplayTitleOf(date))
	assert.Equal(t, "2024-03-01", facetFor[applib.LocalDate](t, r).DisplayTitleOfMask(date, PatternISO))
	assert.Equal(t, "3/1/24", facetFor[applib.LocalDate](t, r).DisplayTitleOfMask(date, StyleShort))
}

func TestConfiguredFormats(t *testing.T) {
	cfg, err := config.FromMap(map[string]any{
		"value_types": map[string]any{
			"local_date": map[string]any{
				"format":   "dmy",
				"patterns": map[string]any{"dmy": "02/01/2006"},
			},
			"local_time": map[string]any{"format": "short"},
			"int":        map[string]any{"format": "0000"},
		},
	})
	require.NoError(t, err)
	r := NewRegistry(cfg)

	date := facetFor[applib.LocalDate](t, r)
	assert.Equal(t, "01/03/2024", date.DisplayTitleOf(applib.LocalDate{Year: 2024, Month: time.March, Day: 1}))
	res, err := date.ParseTextEntry("15/08/2023")
	require.NoError(t, err)
	assert.Equal(t, applib.LocalDate{Year: 2023, Month: time.August, Day: 15}, res.Value)

	assert.Equal(t, "3:04 PM", facetFor[applib.LocalTime](t, r).DisplayTitleOf(applib.LocalTime{Hour: 15, Minute: 4}))
	assert.Equal(t, "0042", facetFor[int](t, r).DisplayTitleOf(42))
}

func TestParseTextEntry_Types(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name  string
		facet *Facet
		text  string
		want  any
	}{
		{"grouped int", facetFor[int](t, r), "1,234", 1234},
		{"float", facetFor[float64](t, r), "1,234.5", 1234.5},
		{"bool word", facetFor[bool](t, r), "Yes", true},
		{"iso date", facetFor[applib.LocalDate](t, r), "2024-03-01", applib.LocalDate{Year: 2024, Month: time.March, Day: 1}},
		{"medium date", facetFor[applib.LocalDate](t, r), "Mar 1, 2024", applib.LocalDate{Year: 2024, Month: time.March, Day: 1}},
		{"iso time", facetFor[applib.LocalTime](t, r), "08:30:00", applib.LocalTime{Hour: 8, Minute: 30}},
		{"uuid", facetFor[uuid.UUID](t, r), "0b5c3e1e-5d2f-4a8e-9f13-6a1a2c3d4e5f", uuid.MustParse("0b5c3e1e-5d2f-4a8e-9f13-6a1a2c3d4e5f")},
		{"pointer string", facetFor[*string](t, r), "hi", ptr("hi")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.facet.ParseTextEntry(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
		})
	}

	_, err := facetFor[bool](t, r).ParseTextEntry("maybe")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = facetFor[string](t, r).ParseTextEntry("")
	assert.ErrorIs(t, err, ErrEntryRequired)

	res, err := facetFor[*big.Rat](t, r).ParseTextEntry(" ")
	require.NoError(t, err)
	assert.True(t, res.Absent)
}

func TestLocale(t *testing.T) {
	de := NewLocale("de-DE")
	assert.Equal(t, ",", de.DecimalSeparator())
	assert.Equal(t, "1234.5", de.Normalize("1.234,5"))

	unknown := NewLocale("not a tag")
	assert.Equal(t, ".", unknown.DecimalSeparator())

	assert.Equal(t, "-1,234,567", NewLocale("en").GroupDigits("-1234567"))
	assert.Equal(t, "123", NewLocale("en").GroupDigits("123"))
}

func TestResolveFormatter(t *testing.T) {
	named := func(s string) (string, bool) { return "named:" + s, s == "medium" }
	custom := func(s string) (string, bool) { return "custom:" + s, s == "mine" }
	raw := func(s string) (string, bool) { return "raw:" + s, s == "#0" }

	assert.Equal(t, "named:medium", ResolveFormatter("medium", named, custom, raw, "fallback"))
	assert.Equal(t, "custom:mine", ResolveFormatter("mine", named, custom, raw, "fallback"))
	assert.Equal(t, "raw:#0", ResolveFormatter("#0", named, custom, raw, "fallback"))
	assert.Equal(t, "fallback", ResolveFormatter("bogus", named, custom, raw, "fallback"))
	assert.Equal(t, "fallback", ResolveFormatter("", named, custom, raw, "fallback"))
	assert.Equal(t, "raw:#0", ResolveFormatter("#0", nil, nil, raw, "fallback"))
}

func TestParseMask(t *testing.T) {
	m, ok := ParseMask("#,##0.00")
	require.True(t, ok)
	assert.Equal(t, Mask{Grouping: true, MinIntegerDigits: 1, MinFraction: 2, MaxFraction: 2}, m)

	for _, bad := range []string{"", "abc", "1.2.3", "#.#,#", ",."} {
		_, ok := ParseMask(bad)
		assert.False(t, ok, bad)
	}
}

func TestValidLayout(t *testing.T) {
	assert.True(t, ValidLayout("02/01/2006"))
	assert.False(t, ValidLayout("dmy"))
	assert.False(t, ValidLayout(""))
}

type level int

const (
	low level = iota
	high
)

func (l level) String() string {
	if l == high {
		return "high"
	}
	return "low"
}

func (level) EnumValues() []any { return []any{low, high} }

func (level) DefaultValue() any { return high }

type shade string

func (shade) EnumValues() []any { return []any{shade("light"), shade("dark")} }

func TestEnumerations(t *testing.T) {
	r := NewRegistry(nil)
	assert.True(t, r.IsValueType(reflect.TypeFor[shade]()))
	assert.True(t, r.IsValueType(reflect.TypeFor[*shade]()))
	assert.False(t, r.IsValueType(reflect.TypeFor[struct{ Name string }]()))

	f := facetFor[shade](t, r)
	res, err := f.ParseTextEntry("DARK")
	require.NoError(t, err)
	assert.Equal(t, shade("dark"), res.Value)

	_, err = f.ParseTextEntry("grey")
	assert.ErrorIs(t, err, ErrMalformed)

	encoded, err := f.ToEncodedString(shade("light"))
	require.NoError(t, err)
	decoded, err := f.FromEncodedString(encoded)
	require.NoError(t, err)
	assert.Equal(t, shade("light"), decoded)
}

func processClass(t *testing.T, typ reflect.Type, factories ...facets.ClassProcessor) *facetapi.Holder {
	t.Helper()
	arena := facetapi.NewArena()
	h := arena.NewHolder(facetapi.ClassIdentifier(spec.LogicalTypeName(typ)), facetapi.Object)
	ctx := &facets.ProcessClassContext{
		Context: facets.NewContext(nil),
		Class:   facets.NewClass(typ, spec.LogicalTypeName(typ)),
		Holder:  h,
	}
	for _, f := range factories {
		require.NoError(t, f.ProcessClass(ctx))
	}
	return h
}

func TestFacetFactory(t *testing.T) {
	r := NewRegistry(nil)

	t.Run("adds value, title and derived default", func(t *testing.T) {
		h := processClass(t, reflect.TypeFor[int8](), NewFacetFactory(r))

		vf, ok := facetapi.Lookup[*Facet](h, FacetType)
		require.True(t, ok)
		assert.False(t, vf.AlwaysReplace())
		assert.Same(t, vf, h.Facet(EncodableFacetType))

		title, ok := facetapi.Lookup[spec.TitleFacet](h, spec.TitleFacetType)
		require.True(t, ok)
		assert.Equal(t, "-5", title.Title(int8(-5)))

		def, ok := facetapi.Lookup[*DefaultedFacet](h, DefaultedFacetType)
		require.True(t, ok)
		assert.True(t, def.IsDerived())
		assert.Equal(t, int8(0), def.Default())
	})

	t.Run("explicit default wins over the value type default", func(t *testing.T) {
		h := processClass(t, reflect.TypeFor[level](), DefaultedFacetFactory{}, NewFacetFactory(r))

		def, ok := facetapi.Lookup[*DefaultedFacet](h, DefaultedFacetType)
		require.True(t, ok)
		assert.False(t, def.IsDerived())
		assert.Equal(t, high, def.Default())
	})

	t.Run("ignores other types", func(t *testing.T) {
		h := processClass(t, reflect.TypeFor[struct{ Name string }](), NewFacetFactory(r))
		assert.Zero(t, h.Len())
	})
}

type countingLoader struct {
	calls int
	spec  *spec.Specification
}

func (l *countingLoader) LoadSpecification(reflect.Type) *spec.Specification {
	l.calls++
	return l.spec
}

func (l *countingLoader) SpecificationByName(string) (*spec.Specification, bool) {
	return nil, false
}

func TestFacet_SpecificationIsResolvedOnce(t *testing.T) {
	loader := &countingLoader{spec: &spec.Specification{}}
	f, ok := NewRegistry(nil).FacetFor(reflect.TypeFor[int](), loader)
	require.True(t, ok)

	assert.Same(t, loader.spec, f.Specification())
	assert.Same(t, loader.spec, f.Specification())
	assert.Equal(t, 1, loader.calls)
}

func TestFacet_Attributes(t *testing.T) {
	f := facetFor[int8](t, NewRegistry(nil))
	attrs := facetapi.Attributes(f)

	assert.Equal(t, "ValueSemanticsFacet", attrs["facet"])
	assert.Equal(t, "EncodableFacet", attrs["alias"])
	assert.Equal(t, 3, attrs["typical_length"])
	assert.Equal(t, 4, attrs["max_length"])
}
