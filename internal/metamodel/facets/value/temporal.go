package value

import (
	"fmt"
	"time"

	"github.com/conduit-lang/metamodel/applib"
)

// temporalType describes how one temporal type maps onto time.Time.
type temporalType struct {
	kind temporalKind
	// iso is the ISO-8601 layout; encoding is the compact reversible layout.
	iso      string
	encoding string
	toTime   func(v any) time.Time
	fromTime func(t time.Time) any
}

var (
	localDateType = temporalType{
		kind:     kindDate,
		iso:      "2006-01-02",
		encoding: "20060102",
		toTime:   func(v any) time.Time { return v.(applib.LocalDate).In(time.UTC) },
		fromTime: func(t time.Time) any { return applib.LocalDateOf(t) },
	}
	localDateTimeType = temporalType{
		kind:     kindDateTime,
		iso:      "2006-01-02T15:04:05",
		encoding: "20060102T150405.000000000",
		toTime:   func(v any) time.Time { return v.(applib.LocalDateTime).In(time.UTC) },
		fromTime: func(t time.Time) any { return applib.LocalDateTimeOf(t) },
	}
	localTimeType = temporalType{
		kind:     kindTime,
		iso:      "15:04:05",
		encoding: "150405.000000000",
		toTime:   func(v any) time.Time { return v.(applib.LocalTime).In(time.UTC) },
		fromTime: func(t time.Time) any { return applib.LocalTimeOf(t) },
	}
	offsetDateTimeType = temporalType{
		kind:     kindOffsetDateTime,
		iso:      time.RFC3339,
		encoding: "20060102T150405.000000000-0700",
		toTime:   func(v any) time.Time { return v.(time.Time) },
		fromTime: func(t time.Time) any { return t },
	}
)

type temporalProvider struct {
	temporalType
	locale   Locale
	patterns map[string]string
	layout   string
}

func newTemporalProvider(tt temporalType, env Env) *temporalProvider {
	p := &temporalProvider{temporalType: tt, locale: env.Locale, patterns: map[string]string{
		PatternISO:         tt.iso,
		PatternISOEncoding: tt.encoding,
	}}
	for name, pattern := range env.Patterns {
		p.patterns[name] = pattern
	}
	medium, _ := env.Locale.StyleLayout(tt.kind, StyleMedium)
	p.layout = p.resolve(env.Format, medium)
	return p
}

// resolve interprets a configured format as a style, a named pattern or a
// raw layout.
func (p *temporalProvider) resolve(configured, fallback string) string {
	return ResolveFormatter(configured,
		func(s string) (string, bool) { return p.locale.StyleLayout(p.kind, s) },
		func(s string) (string, bool) {
			layout, ok := p.patterns[s]
			return layout, ok
		},
		func(s string) (string, bool) { return s, ValidLayout(s) },
		fallback,
	)
}

// Parse accepts the display layout, then ISO, then the encoding layout.
func (p *temporalProvider) Parse(text string) (any, error) {
	var firstErr error
	for _, layout := range []string{p.layout, p.iso, p.encoding} {
		t, err := p.parse(layout, text)
		if err == nil {
			return p.fromTime(t), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (p *temporalProvider) parse(layout, text string) (time.Time, error) {
	if p.kind == kindOffsetDateTime {
		return time.Parse(layout, text)
	}
	return time.ParseInLocation(layout, text, time.UTC)
}

// Encodable years are those the four-digit encoding layout reads back.
const (
	minEncodableYear = 0
	maxEncodableYear = 9999
)

func (p *temporalProvider) Encode(v any) (string, error) {
	t := p.toTime(v)
	if p.kind != kindTime {
		if y := t.Year(); y < minEncodableYear || y > maxEncodableYear {
			return "", fmt.Errorf("year %d outside encodable range %d..%d", y, minEncodableYear, maxEncodableYear)
		}
	}
	if p.kind == kindOffsetDateTime {
		if _, offset := t.Zone(); offset%60 != 0 {
			return "", fmt.Errorf("zone offset %ds is not a whole minute", offset)
		}
	}
	return t.Format(p.encoding), nil
}

func (p *temporalProvider) Decode(s string) (any, error) {
	t, err := p.parse(p.encoding, s)
	if err != nil {
		return nil, fmt.Errorf("expected layout %s: %w", p.encoding, err)
	}
	return p.fromTime(t), nil
}

func (p *temporalProvider) Title(v any) string {
	return p.toTime(v).Format(p.layout)
}

func (p *temporalProvider) TitleWithMask(v any, mask string) string {
	return p.toTime(v).Format(p.resolve(mask, p.layout))
}
