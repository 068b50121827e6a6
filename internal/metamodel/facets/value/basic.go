package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type boolProvider struct{}

var boolWords = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true, "on": true,
	"false": false, "f": false, "no": false, "n": false, "0": false, "off": false,
}

func (boolProvider) Parse(text string) (any, error) {
	b, ok := boolWords[strings.ToLower(text)]
	if !ok {
		return nil, fmt.Errorf("%q is neither true nor false", text)
	}
	return b, nil
}

func (boolProvider) Encode(v any) (string, error) {
	return strconv.FormatBool(v.(bool)), nil
}

func (boolProvider) Decode(s string) (any, error) {
	return strconv.ParseBool(s)
}

func (boolProvider) DefaultValue() any { return false }

func (boolProvider) Title(v any) string { return strconv.FormatBool(v.(bool)) }

func (p boolProvider) TitleWithMask(v any, _ string) string { return p.Title(v) }

type stringProvider struct{}

func (stringProvider) Parse(text string) (any, error)       { return text, nil }
func (stringProvider) Encode(v any) (string, error)         { return v.(string), nil }
func (stringProvider) Decode(s string) (any, error)         { return s, nil }
func (stringProvider) Title(v any) string                   { return v.(string) }
func (stringProvider) TitleWithMask(v any, _ string) string { return v.(string) }

type uuidProvider struct{}

func (uuidProvider) Parse(text string) (any, error) {
	return uuid.Parse(text)
}

func (uuidProvider) Encode(v any) (string, error) {
	return v.(uuid.UUID).String(), nil
}

func (uuidProvider) Decode(s string) (any, error) {
	return uuid.Parse(s)
}

func (uuidProvider) Title(v any) string { return v.(uuid.UUID).String() }

func (p uuidProvider) TitleWithMask(v any, _ string) string { return p.Title(v) }
