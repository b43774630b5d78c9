package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/report"
	"github.com/Veraticus/cashflow/internal/service"
)

const maxSeriesDays = 366

var errBadRequest = errors.New("bad request")

// isClientError reports whether err was caused by the request rather than
// the server. Both kinds answer 500; only server faults are logged as errors.
func isClientError(err error) bool {
	return errors.Is(err, errBadRequest) ||
		errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrInvalidDirection) ||
		errors.Is(err, ledger.ErrInvalidFeeMethod) ||
		errors.Is(err, ledger.ErrInvalidOpeningBalance) ||
		errors.Is(err, ledger.ErrUnsetBalances) ||
		errors.Is(err, ledger.ErrAlreadySetup) ||
		errors.Is(err, ledger.ErrInsufficientBalance) ||
		errors.Is(err, service.ErrInvalidFilter)
}

type setupRequest struct {
	Wallet *decimal.Decimal `json:"wallet"`
	Cash   *decimal.Decimal `json:"cash"`
}

type balancesResponse struct {
	Balances *model.BalancePair `json:"balances,omitempty"`
	Opening  *model.BalancePair `json:"opening,omitempty"`
	Total    *decimal.Decimal   `json:"total,omitempty"`
	Setup    bool               `json:"setup"`
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, "Failed to set up balances", err)
		return
	}
	if req.Wallet == nil || req.Cash == nil {
		s.writeError(w, r, "Failed to set up balances", fmt.Errorf("%w: wallet and cash are required", errBadRequest))
		return
	}

	balances, err := s.tracker.Setup(r.Context(), model.BalancePair{Wallet: *req.Wallet, Cash: *req.Cash})
	if err != nil {
		s.writeError(w, r, "Failed to set up balances", err)
		return
	}
	observeBalances(balances)

	total := balances.Total()
	writeJSON(w, http.StatusOK, balancesResponse{
		Setup:    true,
		Balances: &balances,
		Opening:  &balances,
		Total:    &total,
	})
}

func (s *Server) handleBalances(w http.ResponseWriter, _ *http.Request) {
	balances, ok := s.tracker.Balances()
	if !ok {
		writeJSON(w, http.StatusOK, balancesResponse{Setup: false})
		return
	}
	resp := balancesResponse{Setup: true, Balances: &balances}
	if opening, ok := s.tracker.Opening(); ok {
		resp.Opening = &opening
	}
	total := balances.Total()
	resp.Total = &total
	writeJSON(w, http.StatusOK, resp)
}

type verifyResponse struct {
	Stored     model.BalancePair `json:"stored"`
	Replayed   model.BalancePair `json:"replayed"`
	Drift      model.BalancePair `json:"drift"`
	Consistent bool              `json:"consistent"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	v, err := s.tracker.Verify()
	if err != nil {
		s.writeError(w, r, "Failed to verify balances", err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse(v))
}

type recordRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	Direction string           `json:"direction"`
	FeeMethod string           `json:"feeMethod"`
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	const msg = "Failed to record transaction"

	var body recordRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, msg, err)
		return
	}
	if body.Amount == nil {
		s.writeError(w, r, msg, fmt.Errorf("%w: amount is required", ledger.ErrInvalidAmount))
		return
	}
	direction, err := model.ParseDirection(body.Direction)
	if err != nil {
		s.writeError(w, r, msg, fmt.Errorf("%w: %w", ledger.ErrInvalidDirection, err))
		return
	}
	method, err := model.ParseFeeMethod(body.FeeMethod)
	if err != nil {
		s.writeError(w, r, msg, fmt.Errorf("%w: %w", ledger.ErrInvalidFeeMethod, err))
		return
	}

	txn, balances, err := s.tracker.Record(r.Context(), ledger.Request{
		Amount:    *body.Amount,
		Direction: direction,
		FeeMethod: method,
	})
	if err != nil {
		s.writeError(w, r, msg, err)
		return
	}
	observeTransaction(txn)
	observeBalances(balances)

	writeJSON(w, http.StatusOK, txn)
}

type listResponse struct {
	Transactions []model.Transaction `json:"transactions"`
	Count        int                 `json:"count"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query(), s.tracker.Location())
	if err != nil {
		s.writeError(w, r, "Failed to fetch transactions", err)
		return
	}
	txns, err := s.tracker.Transactions(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, "Failed to fetch transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Transactions: txns, Count: len(txns)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Reset(r.Context()); err != nil {
		s.writeError(w, r, "Failed to reset transactions", err)
		return
	}
	balanceGauge.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"message": "All transactions have been reset"})
}

func (s *Server) handleProfits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Profits())
}

func (s *Server) handleDailyProfits(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSeriesDays {
			s.writeError(w, r, "Failed to fetch daily profits",
				fmt.Errorf("%w: days must be between 1 and %d", errBadRequest, maxSeriesDays))
			return
		}
		days = n
	}
	writeJSON(w, http.StatusOK, s.tracker.DailySeries(days))
}

func (s *Server) handleOverview(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Overview())
}

type quoteResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("amount")
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		s.writeError(w, r, "Failed to quote fee", fmt.Errorf("%w: %q", ledger.ErrInvalidAmount, raw))
		return
	}
	charged, err := s.tracker.Quote(amount)
	if err != nil {
		s.writeError(w, r, "Failed to quote fee", err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Amount: amount, Fee: charged})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	state := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := report.WriteCSV(w, state.Log, s.tracker.Location()); err != nil {
		s.logger.Error("csv export failed", "error", err)
	}
}

func (s *Server) handleExportJSON(w http.ResponseWriter, _ *http.Request) {
	state := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="cashflow.json"`)
	if err := report.WriteSnapshot(w, state); err != nil {
		s.logger.Error("json export failed", "error", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", errBadRequest, err)
	}
	return nil
}

// parseFilter reads direction, since, until, min, max, amount, limit, offset
// and order from a query string. Bare dates are days in loc; until is
// exclusive, so until=2025-03-14 stops before that day starts.
func parseFilter(q url.Values, loc *time.Location) (service.TransactionFilter, error) {
	filter := service.TransactionFilter{NewestFirst: true}

	for _, raw := range q["direction"] {
		for _, part := range strings.Split(raw, ",") {
			d, err := model.ParseDirection(part)
			if err != nil {
				return filter, fmt.Errorf("%w: %w", service.ErrInvalidFilter, err)
			}
			filter.Directions = append(filter.Directions, d)
		}
	}

	for key, target := range map[string]**time.Time{"since": &filter.Since, "until": &filter.Until} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := parseTime(raw, loc)
		if err != nil {
			return filter, fmt.Errorf("%w: %s: %w", service.ErrInvalidFilter, key, err)
		}
		*target = &t
	}

	bounds := map[string]service.CompareOp{"min": service.OpGreaterThanOrEqual, "max": service.OpLessThanOrEqual}
	for key, op := range bounds {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: %s %q", service.ErrInvalidFilter, key, raw)
		}
		filter.Amount = append(filter.Amount, service.AmountCondition{Op: op, Value: v})
	}
	for _, raw := range q["amount"] {
		cond, err := service.ParseAmountCondition(raw)
		if err != nil {
			return filter, err
		}
		filter.Amount = append(filter.Amount, cond)
	}

	for key, target := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: %s %q", service.ErrInvalidFilter, key, raw)
		}
		*target = n
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "desc":
	case "asc":
		filter.NewestFirst = false
	default:
		return filter, fmt.Errorf("%w: order %q", service.ErrInvalidFilter, q.Get("order"))
	}

	return filter, filter.Validate()
}

func parseTime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(time.DateOnly, raw, loc)
}
