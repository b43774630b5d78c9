// Package fee computes the agent's profit for a transaction amount.
//
// The schedule is a short ascending table of inclusive upper limits. Amounts
// above the top limit are priced in whole chunks of that limit, and whatever is
// left over is priced again by the lower tiers of the same table.
package fee

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for amounts that are missing, not a number, zero or negative.
	ErrInvalidAmount = errors.New("amount must be a number greater than zero")
	// ErrInvalidSchedule is returned when a schedule table is malformed.
	ErrInvalidSchedule = errors.New("invalid fee schedule")
)

// Tier prices every amount up to and including Limit.
type Tier struct {
	Limit decimal.Decimal `toml:"limit" json:"limit"`
	Fee   decimal.Decimal `toml:"fee" json:"fee"`
}

// Schedule is an immutable fee table. The zero value is not usable; start from
// DefaultSchedule or LoadSchedule.
type Schedule struct {
	Tiers []Tier
	// ChunkSize must equal the limit of the last tier.
	ChunkSize decimal.Decimal
	ChunkFee  decimal.Decimal
	// OverflowFee prices a remainder that falls above every lower tier
	// (between 500 and 1000 in the default table).
	OverflowFee decimal.Decimal
}

// DefaultSchedule returns the kiosk's published table:
//
//	(0, 45]     5
//	(45, 250]   10
//	(250, 500]  15
//	(500, 1000] 20
//
// and 20 per full thousand above that plus the remainder priced by the first three tiers.
func DefaultSchedule() Schedule {
	return Schedule{
		Tiers: []Tier{
			{Limit: decimal.NewFromInt(45), Fee: decimal.NewFromInt(5)},
			{Limit: decimal.NewFromInt(250), Fee: decimal.NewFromInt(10)},
			{Limit: decimal.NewFromInt(500), Fee: decimal.NewFromInt(15)},
			{Limit: decimal.NewFromInt(1000), Fee: decimal.NewFromInt(20)},
		},
		ChunkSize:   decimal.NewFromInt(1000),
		ChunkFee:    decimal.NewFromInt(20),
		OverflowFee: decimal.Zero,
	}
}

// Validate checks the table is ascending, non-negative and that the chunk size
// lines up with the top tier.
func (s Schedule) Validate() error {
	if len(s.Tiers) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidSchedule)
	}
	prev := decimal.Zero
	for i, t := range s.Tiers {
		if !t.Limit.GreaterThan(prev) {
			return fmt.Errorf("%w: tier %d limit %s must be greater than %s", ErrInvalidSchedule, i+1, t.Limit, prev)
		}
		if t.Fee.IsNegative() {
			return fmt.Errorf("%w: tier %d has a negative fee", ErrInvalidSchedule, i+1)
		}
		prev = t.Limit
	}
	if !s.ChunkSize.Equal(prev) {
		return fmt.Errorf("%w: chunk size %s must equal the top tier limit %s", ErrInvalidSchedule, s.ChunkSize, prev)
	}
	if s.ChunkFee.IsNegative() || s.OverflowFee.IsNegative() {
		return fmt.Errorf("%w: chunk and overflow fees cannot be negative", ErrInvalidSchedule)
	}
	return nil
}

// Fee returns the profit earned on amount.
func (s Schedule) Fee(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	if amount.LessThanOrEqual(s.ChunkSize) {
		for _, t := range s.Tiers {
			if amount.LessThanOrEqual(t.Limit) {
				return t.Fee, nil
			}
		}
	}

	chunks := amount.Div(s.ChunkSize).Floor()
	remainder := amount.Mod(s.ChunkSize)

	total := chunks.Mul(s.ChunkFee)
	if remainder.IsPositive() {
		total = total.Add(s.remainderFee(remainder))
	}
	return total, nil
}

func (s Schedule) remainderFee(remainder decimal.Decimal) decimal.Decimal {
	// The top tier is the chunk itself, so it never prices a remainder.
	for _, t := range s.Tiers[:len(s.Tiers)-1] {
		if remainder.LessThanOrEqual(t.Limit) {
			return t.Fee
		}
	}
	return s.OverflowFee
}

// ParseAmount parses user input into a positive amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}
