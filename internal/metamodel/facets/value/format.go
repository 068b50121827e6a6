package value

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ResolveFormatter picks the first applicable interpretation of a configured
// format: a named style, then a named custom pattern, then the format as a
// raw pattern, then fallback.
func ResolveFormatter[F any](
	configured string,
	named func(string) (F, bool),
	custom func(string) (F, bool),
	raw func(string) (F, bool),
	fallback F,
) F {
	if configured == "" {
		return fallback
	}
	for _, resolve := range []func(string) (F, bool){named, custom, raw} {
		if resolve == nil {
			continue
		}
		if f, ok := resolve(configured); ok {
			return f
		}
	}
	return fallback
}

// Locale carries the language used for titles and text entry.
type Locale struct {
	Tag      language.Tag
	printer  *message.Printer
	group    string
	decimal  string
	dateBase string
}

// NewLocale parses a BCP 47 tag; an unknown tag yields English.
func NewLocale(tag string) Locale {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.English
	}
	p := message.NewPrinter(t)
	l := Locale{Tag: t, printer: p}

	// separators as the locale writes 1234.5
	sample := p.Sprint(number.Decimal(1234.5, number.MinFractionDigits(1)))
	if i, j := strings.Index(sample, "1"), strings.Index(sample, "2"); i >= 0 && j > i+1 {
		l.group = sample[i+1 : j]
	}
	if i, j := strings.Index(sample, "4"), strings.Index(sample, "5"); i >= 0 && j > i+1 {
		l.decimal = sample[i+1 : j]
	}
	if l.decimal == "" {
		l.decimal = "."
	}

	base, _ := t.Base()
	l.dateBase = base.String()
	return l
}

// FormatNumber renders v, an int64 or float64, with the locale's separators.
func (l Locale) FormatNumber(v any, opts ...number.Option) string {
	return l.printer.Sprint(number.Decimal(v, opts...))
}

// Normalize strips grouping and turns the locale's decimal separator into a
// dot, ready for strconv.
func (l Locale) Normalize(text string) string {
	s := strings.TrimSpace(text)
	if l.group != "" {
		s = strings.ReplaceAll(s, l.group, "")
		// a non-breaking space group separator is often typed as a plain space
		if strings.TrimSpace(l.group) == "" {
			s = strings.ReplaceAll(s, " ", "")
		}
	}
	if l.decimal != "." {
		s = strings.ReplaceAll(s, l.decimal, ".")
	}
	return strings.TrimPrefix(s, "+")
}

// GroupDigits inserts the locale's grouping separator into a plain integer.
func (l Locale) GroupDigits(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if l.group == "" || len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(l.group)
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// DecimalSeparator returns the locale's decimal separator.
func (l Locale) DecimalSeparator() string { return l.decimal }

// Mask is a numeric pattern such as "#,##0.00".
type Mask struct {
	Grouping         bool
	MinIntegerDigits int
	MinFraction      int
	MaxFraction      int
}

// ParseMask parses a numeric pattern made of '#', '0', ',' and one '.'.
func ParseMask(pattern string) (Mask, bool) {
	if pattern == "" || strings.Trim(pattern, "#0,.") != "" || strings.Count(pattern, ".") > 1 {
		return Mask{}, false
	}
	if !strings.ContainsAny(pattern, "#0") {
		return Mask{}, false
	}
	intPart, fracPart, _ := strings.Cut(pattern, ".")
	if strings.Contains(fracPart, ",") {
		return Mask{}, false
	}
	m := Mask{
		Grouping:         strings.Contains(intPart, ","),
		MinIntegerDigits: strings.Count(intPart, "0"),
		MinFraction:      strings.Count(fracPart, "0"),
		MaxFraction:      len(fracPart),
	}
	return m, true
}

// Options returns the x/text number options of the mask.
func (m Mask) Options() []number.Option {
	opts := []number.Option{
		number.MinFractionDigits(m.MinFraction),
		number.MaxFractionDigits(m.MaxFraction),
	}
	if m.MinIntegerDigits > 0 {
		opts = append(opts, number.MinIntegerDigits(m.MinIntegerDigits))
	}
	if !m.Grouping {
		opts = append(opts, number.NoSeparator())
	}
	return opts
}

// Named date and time styles.
const (
	StyleShort  = "short"
	StyleMedium = "medium"
	StyleLong   = "long"
	StyleFull   = "full"
)

// Named patterns every temporal type registers.
const (
	PatternISO         = "iso"
	PatternISOEncoding = "iso_encoding"
)

type temporalKind int

const (
	kindDate temporalKind = iota
	kindDateTime
	kindTime
	kindOffsetDateTime
)

// styleLayouts maps base language, kind and style onto Go layouts.
var styleLayouts = map[string]map[temporalKind]map[string]string{
	"en": {
		kindDate: {
			StyleShort: "1/2/06", StyleMedium: "Jan 2, 2006",
			StyleLong: "January 2, 2006", StyleFull: "Monday, January 2, 2006",
		},
		kindDateTime: {
			StyleShort: "1/2/06 3:04 PM", StyleMedium: "Jan 2, 2006 3:04:05 PM",
			StyleLong: "January 2, 2006 3:04:05 PM", StyleFull: "Monday, January 2, 2006 3:04:05 PM",
		},
		kindTime: {
			StyleShort: "3:04 PM", StyleMedium: "3:04:05 PM",
			StyleLong: "3:04:05.000 PM", StyleFull: "3:04:05.000000000 PM",
		},
		kindOffsetDateTime: {
			StyleShort: "1/2/06 3:04 PM -07:00", StyleMedium: "Jan 2, 2006 3:04:05 PM -07:00",
			StyleLong: "January 2, 2006 3:04:05 PM -07:00", StyleFull: "Monday, January 2, 2006 3:04:05 PM -07:00",
		},
	},
	"de": {
		kindDate: {
			StyleShort: "02.01.06", StyleMedium: "02.01.2006",
			StyleLong: "2.1.2006", StyleFull: "Monday, 2.1.2006",
		},
		kindDateTime: {
			StyleShort: "02.01.06 15:04", StyleMedium: "02.01.2006 15:04:05",
			StyleLong: "2.1.2006 15:04:05", StyleFull: "Monday, 2.1.2006 15:04:05",
		},
		kindTime: {
			StyleShort: "15:04", StyleMedium: "15:04:05",
			StyleLong: "15:04:05.000", StyleFull: "15:04:05.000000000",
		},
		kindOffsetDateTime: {
			StyleShort: "02.01.06 15:04 -07:00", StyleMedium: "02.01.2006 15:04:05 -07:00",
			StyleLong: "2.1.2006 15:04:05 -07:00", StyleFull: "Monday, 2.1.2006 15:04:05 -07:00",
		},
	},
}

// StyleLayout returns the layout of a named style in the locale, falling
// back to English for languages without their own table.
func (l Locale) StyleLayout(kind temporalKind, style string) (string, bool) {
	table, ok := styleLayouts[l.dateBase]
	if !ok {
		table = styleLayouts["en"]
	}
	layout, ok := table[kind][strings.ToLower(style)]
	return layout, ok
}

var layoutProbe = time.Date(2001, time.February, 3, 16, 5, 6, 7000000, time.FixedZone("", 3600))

// ValidLayout reports whether a raw pattern contains at least one layout
// element; a pattern that formats to itself is not a layout.
func ValidLayout(layout string) bool {
	return layout != "" && layoutProbe.Format(layout) != layout
}

// String implements fmt.Stringer
func (l Locale) String() string {
	return fmt.Sprintf("Locale{%s}", l.Tag)
}
