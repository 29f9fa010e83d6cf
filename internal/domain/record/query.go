package record

import "regexp"

// Sort directions accepted by ListQuery.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Default pagination values. The unpaginated paths use MaxPageSize.
const (
	DefaultPage     = 1
	DefaultPageSize = 1000
	MaxPageSize     = 5000
)

// columnFields are the lifecycle fields backed by real columns; every other
// sort/filter name resolves into the attributes document.
var columnFields = map[string]string{
	"created":    "created_at",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updated":    "updated_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
	"enabled":    "enabled",
}

// fieldNamePattern bounds user-supplied field names before they reach SQL.
var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// ValidFieldName reports whether name is safe to use as a predicate or sort
// target.
func ValidFieldName(name string) bool {
	return name != "" && len(name) <= 64 && fieldNamePattern.MatchString(name)
}

// ColumnFor resolves a caller-facing field name to a storage column, or
// returns false when the field lives inside the attributes document.
func ColumnFor(name string) (string, bool) {
	col, ok := columnFields[name]
	return col, ok
}

// ListQuery describes the uniform filter grammar shared by the list, search,
// filter and summary operations: an equality filter, plus an optional
// free-text OR-contains match over caller-named fields. The removed=false
// predicate is always applied by the repository, never by callers.
type ListQuery struct {
	Page        int
	PageSize    int
	SortBy      string
	SortDir     string
	FilterField string
	FilterValue string
	// Q is matched case-insensitively as a substring of each field in Fields.
	Q      string
	Fields []string
}

// DefaultListQuery returns the baseline query: newest first, first page.
func DefaultListQuery() ListQuery {
	return ListQuery{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		SortBy:   "created",
		SortDir:  SortDesc,
	}
}

// Normalize clamps pagination and drops unsafe field names.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.SortBy == "" || !ValidFieldName(q.SortBy) {
		q.SortBy = "created"
	}
	if q.SortDir != SortAsc {
		q.SortDir = SortDesc
	}
	if q.FilterField != "" && !ValidFieldName(q.FilterField) {
		q.FilterField = ""
		q.FilterValue = ""
	}
	fields := q.Fields[:0:0]
	for _, f := range q.Fields {
		if ValidFieldName(f) {
			fields = append(fields, f)
		}
	}
	q.Fields = fields
	return q
}

// Offset returns the row offset for the current page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
