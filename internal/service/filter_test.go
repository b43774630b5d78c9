package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashflow/internal/model"
)

func sampleLog() []model.Transaction {
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return []model.Transaction{
		{ID: "a", Timestamp: base, Direction: model.DirectionCashIn, Amount: decimal.NewFromInt(100)},
		{ID: "b", Timestamp: base.Add(time.Hour), Direction: model.DirectionCashOut, Amount: decimal.NewFromInt(600)},
		{ID: "c", Timestamp: base.Add(2 * time.Hour), Direction: model.DirectionCashIn, Amount: decimal.NewFromInt(1500)},
		{ID: "d", Timestamp: base.Add(3 * time.Hour), Direction: model.DirectionCashOut, Amount: decimal.NewFromInt(45)},
	}
}

func ids(txns []model.Transaction) []string {
	out := make([]string, 0, len(txns))
	for _, txn := range txns {
		out = append(out, txn.ID)
	}
	return out
}

func TestParseAmountCondition(t *testing.T) {
	tests := []struct {
		input   string
		wantOp  CompareOp
		want    string
		wantErr bool
	}{
		{input: "gte:500", wantOp: OpGreaterThanOrEqual, want: "500"},
		{input: "LT:45.50", wantOp: OpLessThan, want: "45.5"},
		{input: "1500", wantOp: OpEqual, want: "1500"},
		{input: "like:5", wantErr: true},
		{input: "gt:lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cond, err := ParseAmountCondition(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOp, cond.Op)
			assert.True(t, cond.Value.Equal(decimal.RequireFromString(tt.want)))
		})
	}
}

func TestTransactionFilter_Apply(t *testing.T) {
	log := sampleLog()
	since := log[1].Timestamp
	until := log[3].Timestamp

	tests := []struct {
		name   string
		filter TransactionFilter
		want   []string
	}{
		{name: "no filter", want: []string{"a", "b", "c", "d"}},
		{name: "direction", filter: TransactionFilter{Directions: []model.TransactionDirection{model.DirectionCashOut}}, want: []string{"b", "d"}},
		{name: "time window", filter: TransactionFilter{Since: &since, Until: &until}, want: []string{"b", "c"}},
		{
			name: "amount range",
			filter: TransactionFilter{Amount: []AmountCondition{
				{Op: OpGreaterThan, Value: decimal.NewFromInt(45)},
				{Op: OpLessThanOrEqual, Value: decimal.NewFromInt(600)},
			}},
			want: []string{"a", "b"},
		},
		{name: "newest first with limit", filter: TransactionFilter{NewestFirst: true, Limit: 2}, want: []string{"d", "c"}},
		{name: "offset past end", filter: TransactionFilter{Offset: 10}, want: []string{}},
		{name: "offset and limit", filter: TransactionFilter{Offset: 1, Limit: 2}, want: []string{"b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.filter.Validate())
			assert.Equal(t, tt.want, ids(tt.filter.Apply(log)))
		})
	}
}

func TestTransactionFilter_Validate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	invalid := []TransactionFilter{
		{Limit: -1},
		{Offset: -1},
		{Since: &now, Until: &earlier},
		{Directions: []model.TransactionDirection{"REFUND"}},
		{Amount: []AmountCondition{{Op: "between"}}},
	}
	for _, f := range invalid {
		assert.ErrorIs(t, f.Validate(), ErrInvalidFilter)
	}
}
