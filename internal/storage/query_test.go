package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
)

func TestBuildListQuery(t *testing.T) {
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	filter := service.TransactionFilter{
		Since:      &since,
		Directions: []model.TransactionDirection{model.DirectionCashIn, model.DirectionCashOut},
		Amount:     []service.AmountCondition{{Op: service.OpLessThanOrEqual, Value: decimal.NewFromInt(500)}},
		Limit:      10,
		Offset:     5,
	}

	t.Run("postgres placeholders", func(t *testing.T) {
		query, args, err := BuildListQuery(PostgresDialect, filter)
		require.NoError(t, err)
		assert.Equal(t,
			"SELECT id, created_at, direction, amount, fee, fee_method FROM transactions"+
				" WHERE created_at >= $1 AND direction IN ($2, $3) AND amount <= $4"+
				" ORDER BY seq ASC LIMIT $5 OFFSET $6",
			query)
		assert.Equal(t, []any{since, "CASH_IN", "CASH_OUT", "500", 10, 5}, args)
	})

	t.Run("sqlite compares amounts as decimals", func(t *testing.T) {
		query, args, err := BuildListQuery(SQLiteDialect, service.TransactionFilter{
			Amount: []service.AmountCondition{{Op: service.OpGreaterThan, Value: decimal.RequireFromString("45.50")}},
		})
		require.NoError(t, err)
		assert.Equal(t, "SELECT id, created_at, direction, amount, fee, fee_method FROM transactions"+
			" WHERE decimal_cmp(amount, ?) > 0 ORDER BY seq ASC", query)
		assert.Equal(t, []any{"45.5"}, args)
	})

	t.Run("sqlite offset without limit", func(t *testing.T) {
		query, args, err := BuildListQuery(SQLiteDialect, service.TransactionFilter{Offset: 2, NewestFirst: true})
		require.NoError(t, err)
		assert.Equal(t, "SELECT id, created_at, direction, amount, fee, fee_method FROM transactions ORDER BY seq DESC LIMIT -1 OFFSET ?", query)
		assert.Equal(t, []any{2}, args)
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, _, err := BuildListQuery(SQLiteDialect, service.TransactionFilter{Directions: []model.TransactionDirection{"X"}})
		assert.ErrorIs(t, err, service.ErrInvalidFilter)
	})
}
