package fee

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Fee(t *testing.T) {
	s := DefaultSchedule()

	tests := []struct {
		amount string
		want   int64
	}{
		{"0.01", 5},
		{"1", 5},
		{"45", 5},
		{"45.01", 10},
		{"100", 10},
		{"250", 10},
		{"250.50", 15},
		{"500", 15},
		{"501", 20},
		{"1000", 20},
		{"1001", 25},
		{"1045", 25},
		{"1046", 30},
		{"1250", 30},
		{"1251", 35},
		{"1500", 35},
		{"1501", 20},
		{"1999.99", 20},
		{"2000", 40},
		{"2040", 45},
		{"2500", 55},
		{"10000", 200},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := s.Fee(decimal.RequireFromString(tt.amount))
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "fee(%s) = %s, want %d", tt.amount, got, tt.want)
		})
	}
}

func TestSchedule_FeeRejectsNonPositive(t *testing.T) {
	s := DefaultSchedule()

	for _, amount := range []string{"0", "-5", "-0.01"} {
		_, err := s.Fee(decimal.RequireFromString(amount))
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %s", amount)
	}
}

func TestSchedule_FeeIsDeterministic(t *testing.T) {
	s := DefaultSchedule()
	amount := decimal.RequireFromString("1234.56")

	first, err := s.Fee(amount)
	require.NoError(t, err)
	second, err := s.Fee(amount)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestSchedule_OverflowFee(t *testing.T) {
	s := DefaultSchedule()
	s.OverflowFee = decimal.NewFromInt(20)

	got, err := s.Fee(decimal.NewFromInt(1600))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(40)), "got %s", got)

	// The top tier is untouched by the overflow setting.
	got, err = s.Fee(decimal.NewFromInt(600))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(20)), "got %s", got)
}

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Schedule)
		name    string
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Schedule) {}},
		{
			name:    "no tiers",
			mutate:  func(s *Schedule) { s.Tiers = nil },
			wantErr: true,
		},
		{
			name: "limits out of order",
			mutate: func(s *Schedule) {
				s.Tiers[1].Limit = decimal.NewFromInt(40)
			},
			wantErr: true,
		},
		{
			name: "negative fee",
			mutate: func(s *Schedule) {
				s.Tiers[0].Fee = decimal.NewFromInt(-1)
			},
			wantErr: true,
		},
		{
			name:    "chunk size does not match top tier",
			mutate:  func(s *Schedule) { s.ChunkSize = decimal.NewFromInt(500) },
			wantErr: true,
		},
		{
			name:    "negative overflow fee",
			mutate:  func(s *Schedule) { s.OverflowFee = decimal.NewFromInt(-5) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSchedule()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "100", want: "100"},
		{input: " 1,500.25 ", want: "1500.25"},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "0", wantErr: true},
		{input: "-10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)))
		})
	}
}
