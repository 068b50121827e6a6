package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Description", "description"},
		{"DependsOn", "depends_on"},
		{"ID", "id"},
		{"HTTPRequest", "http_request"},
		{"Line2Total", "line2_total"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSnakeCase(tt.in))
		})
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "items", TableName("Item"))
	assert.Equal(t, "order_lines", TableName("OrderLine"))
	assert.Equal(t, "categories", TableName("Category"))
	assert.Equal(t, "days", TableName("Day"))
	assert.Equal(t, "boxes", TableName("Box"))
	assert.Equal(t, "addresses", TableName("Address"))
}
