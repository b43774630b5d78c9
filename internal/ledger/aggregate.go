package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/model"
)

const week = 7 * 24 * time.Hour

// AggregateProfits sums fees over the whole log, split by direction.
func AggregateProfits(log []model.Transaction) model.ProfitSummary {
	sum := model.ProfitSummary{
		Total:   decimal.Zero,
		CashIn:  decimal.Zero,
		CashOut: decimal.Zero,
	}
	for _, txn := range log {
		sum.Total = sum.Total.Add(txn.Fee)
		sum.Count++
		switch txn.Direction {
		case model.DirectionCashIn:
			sum.CashIn = sum.CashIn.Add(txn.Fee)
		case model.DirectionCashOut:
			sum.CashOut = sum.CashOut.Add(txn.Fee)
		}
	}
	return sum
}

// DailyProfitSeries returns one entry per calendar day for the last days days
// ending on ref's date, oldest first. Days are evaluated in loc, or in ref's
// location when loc is nil.
func DailyProfitSeries(log []model.Transaction, days int, ref time.Time, loc *time.Location) []model.DailyProfit {
	if days <= 0 {
		return []model.DailyProfit{}
	}
	if loc == nil {
		loc = ref.Location()
	}

	byDay := make(map[string]decimal.Decimal, len(log))
	for _, txn := range log {
		key := txn.Timestamp.In(loc).Format(time.DateOnly)
		byDay[key] = byDay[key].Add(txn.Fee)
	}

	today := startOfDay(ref.In(loc))
	series := make([]model.DailyProfit, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		profit, ok := byDay[day.Format(time.DateOnly)]
		if !ok {
			profit = decimal.Zero
		}
		series = append(series, model.DailyProfit{
			Date:    day,
			Weekday: day.Weekday().String()[:3],
			Profit:  profit,
		})
	}
	return series
}

// WeeklyProfit sums fees earned in the seven days up to and including ref.
func WeeklyProfit(log []model.Transaction, ref time.Time) decimal.Decimal {
	since := ref.Add(-week)
	total := decimal.Zero
	for _, txn := range log {
		if txn.Timestamp.Before(since) || txn.Timestamp.After(ref) {
			continue
		}
		total = total.Add(txn.Fee)
	}
	return total
}

// BuildOverview is the dashboard headline for ref: today's profit, the trailing
// week and a seven day series.
func BuildOverview(log []model.Transaction, ref time.Time, loc *time.Location) model.Overview {
	series := DailyProfitSeries(log, 7, ref, loc)
	return model.Overview{
		DailyProfit:  series[len(series)-1].Profit,
		WeeklyProfit: WeeklyProfit(log, ref),
		Series:       series,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
