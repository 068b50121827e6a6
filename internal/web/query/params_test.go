package query

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  map[string]string
	}{
		{"none", "", map[string]string{}},
		{"single", "filter[Category]=work", map[string]string{"Category": "work"}},
		{"multiple", "filter[Category]=home&filter[Done]=true", map[string]string{"Category": "home", "Done": "true"}},
		{"ignores other params", "page=2&filter[Done]=false&filter=x", map[string]string{"Done": "false"}},
		{"empty value", "filter[Due]=", map[string]string{"Due": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/objects?"+tt.query, nil)
			assert.Equal(t, tt.want, ParseFilter(r))
		})
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Pagination
	}{
		{"defaults", "", Pagination{Page: 1, PerPage: 20, Offset: 0}},
		{"second page", "page=2&per_page=10", Pagination{Page: 2, PerPage: 10, Offset: 10}},
		{"capped", "per_page=1000", Pagination{Page: 1, PerPage: 100, Offset: 0}},
		{"invalid", "page=abc&per_page=-3", Pagination{Page: 1, PerPage: 20, Offset: 0}},
		{"page zero", "page=0", Pagination{Page: 1, PerPage: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/objects?"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePagination(r, 20, 100))
		})
	}
}

func TestParseList(t *testing.T) {
	r := httptest.NewRequest("GET", "/specs?sort=entity,%20value,,", nil)
	assert.Equal(t, []string{"entity", "value"}, ParseList(r, "sort"))
	assert.Equal(t, []string{}, ParseList(r, "missing"))
}
