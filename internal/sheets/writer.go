package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata" // report dates are rendered in the configured zone

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/cashflow/internal/common"
	"github.com/Veraticus/cashflow/internal/service"
)

const ledgerSheet = "Ledger"

var _ service.ReportWriter = (*Writer)(nil)

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	loc     *time.Location
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWriterWithService(config, srv, logger), nil
}

// NewWriterWithService wraps an already authenticated service.
func NewWriterWithService(config Config, srv *sheets.Service, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(config.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	return &Writer{
		config:  config,
		service: srv,
		logger:  logger,
		loc:     loc,
	}
}

// Write replaces the ledger sheet's contents with report.
func (w *Writer) Write(ctx context.Context, report *service.Report) error {
	w.logger.Info("starting sheets export", "transactions", len(report.Transactions))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrExportUnavailable, err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if err := common.WithRetry(ctx, func() error {
		return classify(w.clearSheet(ctx, spreadsheetID))
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := w.prepareReportData(report)
	if err := common.WithRetry(ctx, func() error {
		return classify(w.writeData(ctx, spreadsheetID, values))
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classify(w.applyFormatting(ctx, spreadsheetID, len(values)))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))
	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		if _, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	created, err := w.service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: ledgerSheet}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	// Later exports in this process reuse it.
	w.config.SpreadsheetID = created.SpreadsheetId
	return created.SpreadsheetId, nil
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareReportData lays out the summary block, the daily series and the log.
func (w *Writer) prepareReportData(report *service.Report) [][]any {
	values := make([][]any, 0, 16+len(report.Series)+len(report.Transactions))

	values = append(values,
		[]any{"Cash Flow Report", report.GeneratedAt.In(w.loc).Format("Jan 2, 2006 15:04")},
		[]any{},
		[]any{"Summary"},
	)
	if report.Balances != nil {
		values = append(values,
			[]any{"GCash Balance", report.Balances.Wallet.InexactFloat64()},
			[]any{"Cash on Hand", report.Balances.Cash.InexactFloat64()},
		)
	}
	values = append(values,
		[]any{"Total Profit", report.Summary.Total.InexactFloat64()},
		[]any{"Cash-In Profit", report.Summary.CashIn.InexactFloat64()},
		[]any{"Cash-Out Profit", report.Summary.CashOut.InexactFloat64()},
		[]any{"Transactions", report.Summary.Count},
	)

	if len(report.Series) > 0 {
		values = append(values, []any{}, []any{"Daily Profit"}, []any{"Date", "Day", "Profit"})
		for _, day := range report.Series {
			values = append(values, DailyRow{Day: day.Date, Weekday: day.Weekday, Profit: day.Profit}.Cells())
		}
	}

	values = append(values,
		[]any{},
		[]any{"Transactions"},
		[]any{"Date", "Type", "Amount", "Profit", "Method"},
	)
	// Newest first, like the history view.
	for i := len(report.Transactions) - 1; i >= 0; i-- {
		values = append(values, NewLedgerRow(report.Transactions[i]).Cells(w.loc))
	}

	return values
}

// writeData writes the data to the spreadsheet in batches.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, fmt.Sprintf("A%d", i+1), &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

// applyFormatting bolds the title and labels, formats money columns, and
// freezes the title row.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, totalRows int) error {
	currency := &sheets.CellFormat{
		NumberFormat: &sheets.NumberFormat{Type: "CURRENCY", Pattern: w.config.CurrencyPattern},
	}
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: 2},
				Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
				}},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{StartRowIndex: 2, EndRowIndex: int64(totalRows), StartColumnIndex: 0, EndColumnIndex: 1},
				Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true},
				}},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  &sheets.GridRange{StartRowIndex: 2, EndRowIndex: int64(totalRows), StartColumnIndex: 2, EndColumnIndex: 4},
				Cell:   &sheets.CellData{UserEnteredFormat: currency},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{Dimension: "COLUMNS", StartIndex: 0, EndIndex: 5},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

// classify maps API failures onto the retry policy: throttling waits out the
// longest delay and other client errors are not retried.
func classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusRequestTimeout:
		return common.Permanent(err)
	}
	return err
}
