package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metamodel/internal/cli/ui"
	"github.com/conduit-lang/metamodel/internal/metamodel/introspect"
)

// Formatter is an interface for formatting output
type Formatter interface {
	Format(data any) error
}

// GetFormatter returns the formatter for format
func GetFormatter(format string, w io.Writer, noColor bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{w: w}, nil
	case "yaml":
		return &YAMLFormatter{w: w}, nil
	case "table", "":
		return &TableFormatter{w: w, noColor: noColor}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", format)
	}
}

// JSONFormatter formats output as indented JSON
type JSONFormatter struct {
	w io.Writer
}

func (f *JSONFormatter) Format(data any) error {
	encoder := json.NewEncoder(f.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	w io.Writer
}

func (f *YAMLFormatter) Format(data any) error {
	encoder := yaml.NewEncoder(f.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// TableFormatter formats output as human-readable tables
type TableFormatter struct {
	w       io.Writer
	noColor bool
}

func (f *TableFormatter) Format(data any) error {
	switch d := data.(type) {
	case []introspect.TypeSummary:
		f.types(d)
	case introspect.TypeDescription:
		f.typeDescription(d)
	case introspect.MemberDescription:
		f.member(d)
	case validationResult:
		f.validation(d)
	default:
		return fmt.Errorf("no table layout for %T", data)
	}
	return nil
}

func (f *TableFormatter) types(types []introspect.TypeSummary) {
	if len(types) == 0 {
		fmt.Fprintln(f.w, "No types found.")
		return
	}
	ui.Header(f.w, fmt.Sprintf("TYPES (%d total)", len(types)), f.noColor)
	table := ui.NewTable(f.w, f.noColor, "NAME", "SORT", "PROPERTIES", "COLLECTIONS", "ACTIONS")
	for _, t := range types {
		table.AddRow(t.Name, t.Sort, count(t.Properties), count(t.Collections), count(t.Actions))
	}
	table.Render()
}

func (f *TableFormatter) typeDescription(d introspect.TypeDescription) {
	ui.Header(f.w, d.Name, f.noColor)
	kv := ui.NewKeyValueTable(f.w, f.noColor)
	kv.AddRow("Display name", d.DisplayName)
	kv.AddRow("Sort", d.Sort)
	kv.AddRow("Go type", d.GoType)
	kv.Render()
	f.facets(d.Facets)

	if len(d.Members) == 0 {
		return
	}
	fmt.Fprintln(f.w)
	table := ui.NewTable(f.w, f.noColor, "ID", "FEATURE", "TYPE", "DISPLAY NAME", "MIXED IN FROM")
	for _, m := range d.Members {
		table.AddRow(m.ID, m.Feature, m.Type, m.DisplayName, m.MixedInFrom)
	}
	table.Render()
}

func (f *TableFormatter) member(m introspect.MemberDescription) {
	ui.Header(f.w, m.Identifier, f.noColor)
	kv := ui.NewKeyValueTable(f.w, f.noColor)
	kv.AddRow("Feature", m.Feature)
	kv.AddRow("Type", m.Type)
	kv.AddRow("Display name", m.DisplayName)
	kv.AddRow("Mixed in from", m.MixedInFrom)
	kv.Render()
	f.facets(m.Facets)

	if len(m.Parameters) == 0 {
		return
	}
	fmt.Fprintln(f.w)
	table := ui.NewTable(f.w, f.noColor, "INDEX", "TYPE", "DISPLAY NAME")
	for _, p := range m.Parameters {
		table.AddRow(fmt.Sprint(p.Index), p.Type, p.DisplayName)
	}
	table.Render()
}

func (f *TableFormatter) facets(facets []introspect.FacetDescription) {
	if len(facets) == 0 {
		return
	}
	fmt.Fprintln(f.w)
	table := ui.NewTable(f.w, f.noColor, "FACET", "ATTRIBUTES")
	for _, fd := range facets {
		table.AddRow(fd.Type, attributes(fd.Attributes))
	}
	table.Render()
}

func (f *TableFormatter) validation(r validationResult) {
	if r.Valid {
		fmt.Fprintln(f.w, ui.Success(fmt.Sprintf("%d types valid", r.Types), f.noColor))
		return
	}
	details := make([]string, 0, len(r.Failures))
	for _, failure := range r.Failures {
		details = append(details, fmt.Sprintf("%s: %s", failure.Identifier, failure.Message))
	}
	ui.Write(f.w, ui.Message{
		Context: "validation failed",
		Problem: plural(len(r.Failures), "failure"),
		Details: details,
		NoColor: f.noColor,
	})
}

// attributes renders facet attributes as sorted key=value pairs
func attributes(attrs map[string]any) string {
	keys := slices.Sorted(maps.Keys(attrs))
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, attrs[k]))
	}
	return strings.Join(pairs, ", ")
}

func count(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprint(n)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
