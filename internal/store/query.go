package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// placeholder renders the n-th (1-based) bind parameter for a dialect.
type placeholder func(n int) string

func postgresPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func sqlitePlaceholder(n int) string { return fmt.Sprintf("?%d", n) }

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a product
// query. It returns the WHERE clause, the LIMIT/OFFSET suffix and the
// positional parameters; callers prepend their dialect's column list.
func (q *ProductQuery) ToSQL(ph placeholder) (where, page string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.Store != "" {
		conditions = append(conditions, "store = "+ph(paramIdx))
		args = append(args, q.Store)
		paramIdx++
	}

	if s := strings.TrimSpace(q.Search); s != "" {
		conditions = append(conditions, "lower(canonical_name) LIKE "+ph(paramIdx))
		args = append(args, "%"+strings.ToLower(s)+"%")
		paramIdx++
	}

	if q.StaleOnly {
		conditions = append(conditions, "stale = "+ph(paramIdx))
		args = append(args, true)
	}

	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	page = fmt.Sprintf(" ORDER BY updated_at DESC, id LIMIT %d OFFSET %d", limit, offset)
	return where, page, args
}
