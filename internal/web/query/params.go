// Package query parses the list parameters of the introspection API.
package query

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// filterPattern matches query parameters like filter[key]
var filterPattern = regexp.MustCompile(`^filter\[([^\]]+)\]$`)

// ParseFilter parses the filter query parameters into a map of filter keys to values.
// Example: ?filter[Category]=work&filter[Done]=false
// Returns: {"Category": "work", "Done": "false"}
// Returns an empty map if no filter parameters are present.
func ParseFilter(r *http.Request) map[string]string {
	result := make(map[string]string)

	for key, values := range r.URL.Query() {
		matches := filterPattern.FindStringSubmatch(key)
		if len(matches) != 2 {
			continue
		}
		if len(values) > 0 {
			result[matches[1]] = values[0]
		}
	}

	return result
}

// Pagination is a window over a result list
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// ParsePagination reads page and per_page. Missing or invalid values fall
// back to page 1 and defaultPerPage; per_page is capped at maxPerPage.
func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) Pagination {
	page := intParam(r, "page", 1)
	if page < 1 {
		page = 1
	}

	perPage := intParam(r, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Pagination{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

// ParseList parses a comma separated parameter, dropping blanks.
// Example: ?sort=entity,value returns ["entity", "value"]
func ParseList(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func intParam(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}
