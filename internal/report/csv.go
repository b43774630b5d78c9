// Package report renders the ledger into portable files: a CSV of the log
// and the JSON snapshot the browser dashboard kept in local storage.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"Date", "Type", "Amount", "Profit", "Method"}

// WriteCSV writes log newest first, one row per transaction. Dates are
// calendar days in loc.
func WriteCSV(w io.Writer, log []model.Transaction, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := len(log) - 1; i >= 0; i-- {
		txn := log[i]
		row := []string{
			txn.Timestamp.In(loc).Format(time.DateOnly),
			string(txn.Direction),
			txn.Amount.String(),
			txn.Fee.String(),
			txn.MethodLabel(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", txn.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVWriter publishes a report's log as CSV.
type CSVWriter struct {
	Out      io.Writer
	Location *time.Location
}

// Write implements service.ReportWriter.
func (c *CSVWriter) Write(_ context.Context, r *service.Report) error {
	return WriteCSV(c.Out, r.Transactions, c.Location)
}
