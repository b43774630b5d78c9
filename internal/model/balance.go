package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalancePair is the agent's two pools. Both sides always move together.
type BalancePair struct {
	Wallet decimal.Decimal `json:"wallet"`
	Cash   decimal.Decimal `json:"cash"`
}

// Equal compares both sides numerically.
func (b BalancePair) Equal(o BalancePair) bool {
	return b.Wallet.Equal(o.Wallet) && b.Cash.Equal(o.Cash)
}

// Total is wallet plus cash.
func (b BalancePair) Total() decimal.Decimal {
	return b.Wallet.Add(b.Cash)
}

// ProfitSummary splits earned fees by direction.
type ProfitSummary struct {
	Total   decimal.Decimal `json:"totalProfit"`
	CashIn  decimal.Decimal `json:"cashInProfit"`
	CashOut decimal.Decimal `json:"cashOutProfit"`
	Count   int             `json:"count"`
}

// DailyProfit is one point of a daily profit series.
type DailyProfit struct {
	Date    time.Time       `json:"date"`
	Weekday string          `json:"weekday"`
	Profit  decimal.Decimal `json:"profit"`
}

// Overview is the dashboard headline: today, the trailing week, and a 7-day series.
type Overview struct {
	DailyProfit  decimal.Decimal `json:"dailyProfit"`
	WeeklyProfit decimal.Decimal `json:"weeklyProfit"`
	Series       []DailyProfit   `json:"series"`
}
