package sheets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/model"
)

// LedgerRow is one transaction as laid out on the sheet.
type LedgerRow struct {
	Date   time.Time
	Type   string
	Method string
	Amount decimal.Decimal
	Profit decimal.Decimal
}

// NewLedgerRow flattens a transaction.
func NewLedgerRow(txn model.Transaction) LedgerRow {
	return LedgerRow{
		Date:   txn.Timestamp,
		Type:   txn.Direction.Label(),
		Method: txn.MethodLabel(),
		Amount: txn.Amount,
		Profit: txn.Fee,
	}
}

// Cells renders the row in the sheet's column order, dates in loc.
func (r LedgerRow) Cells(loc *time.Location) []any {
	return []any{
		r.Date.In(loc).Format("2006-01-02 15:04"),
		r.Type,
		r.Amount.InexactFloat64(),
		r.Profit.InexactFloat64(),
		r.Method,
	}
}

// DailyRow is one day of the profit series.
type DailyRow struct {
	Day     time.Time
	Weekday string
	Profit  decimal.Decimal
}

// Cells renders the row in the sheet's column order.
func (r DailyRow) Cells() []any {
	return []any{r.Day.Format(time.DateOnly), r.Weekday, r.Profit.InexactFloat64()}
}
