package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "ID", "Type")
	table.AddRow("Due", "LocalDate")
	table.AddRow("DependsOn", "[]todo.Item")
	table.AddRow("Archive")
	table.Render()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"ID         Type",
		strings.Repeat("─", 9) + "  " + strings.Repeat("─", 11),
		"Due        LocalDate",
		"DependsOn  []todo.Item",
		"Archive    ",
	}, lines)
	assert.Equal(t, 3, table.Len())
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	assert.Empty(t, buf.String())
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Name", "todo.Item")
	kv.AddRow("Display name", "")
	kv.AddRow("Sort", "entity")
	kv.Render()

	assert.Equal(t, "Name: todo.Item\nSort: entity\n", buf.String())
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "todo.Item", true)
	assert.Equal(t, "todo.Item\n"+strings.Repeat("─", 9)+"\n", buf.String())
}
