package applib

import (
	"reflect"
	"strings"
)

// TagKey is the struct tag key read by the metamodel.
const TagKey = "mm"

// Tag is a parsed `mm:"..."` struct tag: comma separated flags and
// key=value pairs, e.g. `mm:"name=Due date,optional,hidden=tables"`.
type Tag map[string]string

// ParseTag parses the metamodel tag of a struct field.
func ParseTag(field reflect.StructField) Tag {
	return ParseTagValue(field.Tag.Get(TagKey))
}

// ParseTagValue parses a raw tag value.
func ParseTagValue(raw string) Tag {
	tag := Tag{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		tag[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return tag
}

// Has reports whether the flag or key is present.
func (t Tag) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// Get returns the value of key, or "" when absent or a bare flag.
func (t Tag) Get(key string) string {
	return t[key]
}

// ParseWhere maps a tag value onto a Where; a bare flag means Everywhere.
func ParseWhere(s string) Where {
	switch strings.ToLower(s) {
	case "", "everywhere":
		return Everywhere
	case "forms", "object_forms":
		return ObjectForms
	case "tables", "all_tables":
		return AllTables
	case "nowhere":
		return Nowhere
	default:
		return Everywhere
	}
}
