package access

import (
	"fmt"
	"strings"
)

// QueryOptions are the caller-supplied listing options for the reporting
// endpoints. Search and id filters become bound parameters; pagination and
// sort values are validated against numeric bounds / an allow-list before
// they are interpolated, since LIMIT/OFFSET and ORDER BY cannot be
// parameterized.
type QueryOptions struct {
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// SearchClause builds a free-text LIKE predicate across the given columns.
// Returns an empty predicate when the term is blank.
func SearchClause(term string, columns ...string) Predicate {
	if term == "" || len(columns) == 0 {
		return Predicate{}
	}
	like := "%" + term + "%"
	conds := make([]string, 0, len(columns))
	params := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, col+" LIKE ?")
		params = append(params, like)
	}
	return Predicate{
		Clause: " AND (" + strings.Join(conds, " OR ") + ")",
		Params: params,
	}
}

// EqualsClause builds a single-column equality predicate with a bound value.
// Returns an empty predicate when the value is blank.
func EqualsClause(column, value string) Predicate {
	if value == "" {
		return Predicate{}
	}
	return Predicate{Clause: " AND " + column + " = ?", Params: []interface{}{value}}
}

// Combine conjoins predicates in order, concatenating clauses and parameters.
func Combine(preds ...Predicate) Predicate {
	var out Predicate
	for _, p := range preds {
		out.Clause += p.Clause
		out.Params = append(out.Params, p.Params...)
	}
	return out
}

// Pagination renders a LIMIT/OFFSET suffix from a 1-based page number and a
// page size. Values are clamped to sane bounds rather than interpolated
// verbatim; a non-positive page means page 1 and a non-positive limit means
// the default page size.
func Pagination(page, limit int) string {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// OrderBy renders an ORDER BY suffix. The sort key must appear in the
// caller's allow-list (external key -> column name) and the direction is
// restricted to ASC/DESC; anything else is a caller input error.
func OrderBy(sortBy, sortOrder string, allowed map[string]string) (string, error) {
	column, ok := allowed[sortBy]
	if !ok {
		return "", fmt.Errorf("unsupported sort column: %s", sortBy)
	}
	dir := strings.ToUpper(sortOrder)
	switch dir {
	case "", "ASC":
		dir = "ASC"
	case "DESC":
	default:
		return "", fmt.Errorf("unsupported sort direction: %s", sortOrder)
	}
	return " ORDER BY " + column + " " + dir, nil
}
