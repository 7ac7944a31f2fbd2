// Package table searches, sorts and paginates the rows shown on list screens.
package table

import (
	"sort"
	"strings"

	"github.com/volatiletech/strmangle"
)

const DefaultPageSize = 10

// Column describes one column of a list screen.
type Column[R any] struct {
	// Key is the JSON key of the field; it names the column in orderings.
	Key   string
	Title string
	Value func(R) string
	// Less overrides the default case-insensitive comparison of Value.
	Less       func(a, b R) bool
	Searchable bool
}

// Header returns the column title, derived from Key when Title is empty.
func (c Column[R]) Header() string {
	if c.Title != "" {
		return c.Title
	}
	return Header(c.Key)
}

// Header title-cases a JSON key: "created_at" -> "Created At", "id" -> "ID".
func Header(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		parts[i] = strmangle.TitleCase(part)
	}
	return strings.Join(parts, " ")
}

type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// ParseOrdering reads a comma separated list of keys, "-" marking a descending key: "-created_at,lastname".
func ParseOrdering(val string) []Ordering {
	var orderings []Ordering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, Ordering{Field: field, Ascending: !descending})
	}
	return orderings
}

// Query is what a list screen asks for. Page is 1-based.
type Query struct {
	Search   string
	Ordering []Ordering
	Page     int
	PageSize int
}

type Page[R any] struct {
	Rows  []R
	Page  int
	Pages int
	// Total counts the rows matching the search, across all pages.
	Total int
}

// Apply filters rows on the searchable columns, sorts them and cuts the requested page.
// rows is not modified. Out of range pages are clamped.
func Apply[R any](rows []R, cols []Column[R], q Query) Page[R] {
	matched := search(rows, cols, q.Search)
	sortRows(matched, cols, q.Ordering)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (len(matched) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return Page[R]{Rows: matched[start:end], Page: page, Pages: pages, Total: len(matched)}
}

func search[R any](rows []R, cols []Column[R], term string) []R {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		if term == "" || matches(row, cols, term) {
			out = append(out, row)
		}
	}
	return out
}

func matches[R any](row R, cols []Column[R], term string) bool {
	for _, col := range cols {
		if col.Searchable && strings.Contains(strings.ToLower(col.Value(row)), term) {
			return true
		}
	}
	return false
}

func sortRows[R any](rows []R, cols []Column[R], orderings []Ordering) {
	byKey := make(map[string]Column[R], len(cols))
	for _, col := range cols {
		byKey[col.Key] = col
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range orderings {
			col, ok := byKey[ord.Field]
			if !ok {
				continue // unknown keys are ignored
			}
			a, b := rows[i], rows[j]
			if !ord.Ascending {
				a, b = b, a
			}
			if col.less(a, b) {
				return true
			}
			if col.less(b, a) {
				return false
			}
		}
		return false
	})
}

func (c Column[R]) less(a, b R) bool {
	if c.Less != nil {
		return c.Less(a, b)
	}
	return strings.ToLower(c.Value(a)) < strings.ToLower(c.Value(b))
}
