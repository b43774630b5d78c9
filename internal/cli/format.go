package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/model"
)

// FormatPeso renders an amount as pesos with thousands separators. Whole
// amounts drop the centavos: ₱5,000 and ₱45.50.
func FormatPeso(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	rounded := d.Round(2)
	whole := rounded.Truncate(0)
	out := "₱" + humanize.Comma(whole.IntPart())
	if cents := rounded.Sub(whole); !cents.IsZero() {
		out += strings.TrimPrefix(cents.StringFixed(2), "0")
	}
	return sign + out
}

// RenderBalances shows both pools, their total, and the change since opening
// when opening is known.
func RenderBalances(b model.BalancePair, opening *model.BalancePair) string {
	line := func(icon, label string, v decimal.Decimal, start *decimal.Decimal) string {
		s := fmt.Sprintf("%s %-7s %s", icon, label, BoldStyle.Render(FormatPeso(v)))
		if start != nil {
			delta := v.Sub(*start)
			if !delta.IsZero() {
				sign := "+"
				if delta.IsNegative() {
					sign = ""
				}
				s += SubtleStyle.Render(fmt.Sprintf("  (%s%s since setup)", sign, FormatPeso(delta)))
			}
		}
		return s
	}

	var wStart, cStart *decimal.Decimal
	if opening != nil {
		wStart, cStart = &opening.Wallet, &opening.Cash
	}
	return RenderBox("Balances", strings.Join([]string{
		line(WalletIcon, "GCash", b.Wallet, wStart),
		line(CashIcon, "Cash", b.Cash, cStart),
		SubtleStyle.Render("  Total   " + FormatPeso(b.Total())),
	}, "\n"))
}

// RenderTransaction is the one-line confirmation after a record.
func RenderTransaction(txn model.Transaction, loc *time.Location) string {
	icon := InIcon
	if txn.Direction == model.DirectionCashOut {
		icon = OutIcon
	}
	method := ""
	if txn.FeeMethod != model.FeeNone {
		method = fmt.Sprintf(" (fee %s)", txn.FeeMethod)
	}
	return fmt.Sprintf("%s %s %s, profit %s%s  %s",
		icon,
		txn.Direction.Label(),
		BoldStyle.Render(FormatPeso(txn.Amount)),
		SuccessStyle.Render(FormatPeso(txn.Fee)),
		method,
		SubtleStyle.Render(txn.Timestamp.In(loc).Format("Jan 2 15:04")))
}

// RenderTransactions renders a table in the order given.
func RenderTransactions(txns []model.Transaction, loc *time.Location) string {
	if len(txns) == 0 {
		return SubtleStyle.Render("No transactions yet")
	}
	if loc == nil {
		loc = time.Local
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers("Date", "Type", "Amount", "Profit", "Method").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := TableCellStyle
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if col == 2 || col == 3 {
				style = style.Align(lipgloss.Right)
			}
			return style
		})
	for _, txn := range txns {
		t.Row(
			txn.Timestamp.In(loc).Format("2006-01-02 15:04"),
			txn.Direction.Label(),
			FormatPeso(txn.Amount),
			FormatPeso(txn.Fee),
			txn.MethodLabel(),
		)
	}
	return t.Render()
}

// RenderProfits summarises earned fees.
func RenderProfits(sum model.ProfitSummary, ov model.Overview) string {
	lines := []string{
		fmt.Sprintf("Total profit    %s", BoldStyle.Render(FormatPeso(sum.Total))),
		fmt.Sprintf("  Cash-In       %s", FormatPeso(sum.CashIn)),
		fmt.Sprintf("  Cash-Out      %s", FormatPeso(sum.CashOut)),
		fmt.Sprintf("Today           %s", SuccessStyle.Render(FormatPeso(ov.DailyProfit))),
		fmt.Sprintf("Last 7 days     %s", SuccessStyle.Render(FormatPeso(ov.WeeklyProfit))),
		SubtleStyle.Render(fmt.Sprintf("%d transactions", sum.Count)),
	}
	return RenderBox(ChartIcon+" Profits", strings.Join(lines, "\n"))
}

const barWidth = 30

// RenderSeries draws one bar per day scaled to the best day.
func RenderSeries(series []model.DailyProfit) string {
	if len(series) == 0 {
		return ""
	}
	peak := decimal.Zero
	for _, day := range series {
		if day.Profit.GreaterThan(peak) {
			peak = day.Profit
		}
	}

	var b strings.Builder
	for _, day := range series {
		n := 0
		if peak.IsPositive() {
			n = int(day.Profit.Mul(decimal.NewFromInt(barWidth)).Div(peak).IntPart())
		}
		fmt.Fprintf(&b, "%s %s %-*s %s\n",
			SubtleStyle.Render(day.Date.Format("01-02")),
			day.Weekday,
			barWidth,
			strings.Repeat("█", n),
			FormatPeso(day.Profit))
	}
	return strings.TrimRight(b.String(), "\n")
}
