package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message describes a formatted error, warning or note
type Message struct {
	Level   Level
	Context string
	Problem string
	// Details are indented lines under the problem
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// Format renders a message such as
//
//	❌ TYPE NOT FOUND: todo.Itme
//
//	   Did you mean: todo.Item?
//
//	   → List types: metamodel introspect
func Format(m Message) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case LevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if m.NoColor {
		for _, c := range []*color.Color{header, body, yellow, cyan} {
			c.DisableColor()
		}
	}

	if m.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}
	for _, d := range m.Details {
		body.Fprintf(&b, "   %s\n", d)
	}
	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}
	if len(m.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, c := range m.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", c)
		}
	}
	return b.String()
}

// Write writes the formatted message to w
func Write(w io.Writer, m Message) {
	fmt.Fprint(w, Format(m))
}

// TypeNotFound formats an unknown logical type name with suggestions
func TypeNotFound(name string, suggestions []string, noColor bool) string {
	return Format(Message{
		Context:     "type not found",
		Problem:     name,
		Suggestions: suggestions,
		HelpCommands: []string{
			"List types: metamodel introspect",
		},
		NoColor: noColor,
	})
}

// MemberNotFound formats an unknown member id of a type
func MemberNotFound(typeName, id string, suggestions []string, noColor bool) string {
	return Format(Message{
		Context:     "member not found",
		Problem:     fmt.Sprintf("%s has no member %q", typeName, id),
		Suggestions: suggestions,
		HelpCommands: []string{
			fmt.Sprintf("List members: metamodel introspect %s", typeName),
		},
		NoColor: noColor,
	})
}

// Success formats a one-line success message
func Success(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}
