package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductQuery_ToSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		query     ProductQuery
		ph        placeholder
		wantWhere string
		wantPage  string
		wantArgs  []any
	}{
		{
			name:      "empty query uses defaults",
			query:     ProductQuery{},
			ph:        postgresPlaceholder,
			wantWhere: "",
			wantPage:  " ORDER BY updated_at DESC, id LIMIT 50 OFFSET 0",
			wantArgs:  nil,
		},
		{
			name:      "store filter",
			query:     ProductQuery{Store: "ksp"},
			ph:        postgresPlaceholder,
			wantWhere: " WHERE store = $1",
			wantPage:  " ORDER BY updated_at DESC, id LIMIT 50 OFFSET 0",
			wantArgs:  []any{"ksp"},
		},
		{
			name:      "all filters sqlite",
			query:     ProductQuery{Store: "ksp", Search: " SSD ", StaleOnly: true, Limit: 10, Offset: 20},
			ph:        sqlitePlaceholder,
			wantWhere: " WHERE store = ?1 AND lower(canonical_name) LIKE ?2 AND stale = ?3",
			wantPage:  " ORDER BY updated_at DESC, id LIMIT 10 OFFSET 20",
			wantArgs:  []any{"ksp", "%ssd%", true},
		},
		{
			name:      "limit capped and negative offset clamped",
			query:     ProductQuery{Limit: 10_000, Offset: -5},
			ph:        postgresPlaceholder,
			wantWhere: "",
			wantPage:  " ORDER BY updated_at DESC, id LIMIT 500 OFFSET 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			where, page, args := tt.query.ToSQL(tt.ph)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
