package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashflow/internal/common"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
	"github.com/Veraticus/cashflow/internal/storage"
	"github.com/Veraticus/cashflow/internal/testutil"
)

type cliHarness struct {
	t      *testing.T
	dbPath string
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	return &cliHarness{t: t, dbPath: filepath.Join(t.TempDir(), "cashflow.db")}
}

// run executes the CLI against the harness database with stdin fed from input.
func (h *cliHarness) run(input string, args ...string) (string, error) {
	h.t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(append([]string{"--db", h.dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, out)
	return out
}

// state reads the ledger straight from the database.
func (h *cliHarness) state() ledger.State {
	h.t.Helper()
	store, err := storage.NewSQLiteStorage(h.dbPath)
	require.NoError(h.t, err)
	defer func() { _ = store.Close() }()

	state, err := store.LoadState(context.Background())
	require.NoError(h.t, err)
	return state
}

func (h *cliHarness) requireBalances(wallet, cash string) {
	h.t.Helper()
	state := h.state()
	require.NotNil(h.t, state.Balances)
	assert.True(h.t, state.Balances.Wallet.Equal(decimal.RequireFromString(wallet)), "wallet %s, want %s", state.Balances.Wallet, wallet)
	assert.True(h.t, state.Balances.Cash.Equal(decimal.RequireFromString(cash)), "cash %s, want %s", state.Balances.Cash, cash)
}

func TestSetupAndRecord(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("setup", "--wallet", "5,000", "--cash", "10000")
	assert.Contains(t, out, "₱5,000")
	assert.Contains(t, out, "₱10,000")

	h.mustRun("cash-in", "100")
	h.requireBalances("4900", "10110")

	out = h.mustRun("cash-out", "200", "--method", "separate")
	assert.Contains(t, out, "Cash-Out")
	h.requireBalances("5100", "9920")

	out = h.mustRun("cash-out", "1500")
	assert.Contains(t, out, "₱35")
	h.requireBalances("6635", "8420")

	state := h.state()
	require.Len(t, state.Log, 3)
	assert.Equal(t, model.FeeNone, state.Log[0].FeeMethod)
	assert.Equal(t, model.FeeSeparate, state.Log[1].FeeMethod)
	assert.Equal(t, model.FeeIncluded, state.Log[2].FeeMethod)

	out = h.mustRun("balances")
	assert.Contains(t, out, "₱6,635")
	assert.Contains(t, out, "since setup")

	out = h.mustRun("profits", "--days", "3")
	assert.Contains(t, out, "₱55")
	assert.Contains(t, out, "Last 3 days")

	out = h.mustRun("verify")
	assert.Contains(t, out, "match")
}

func TestSetup_Prompts(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("₱2,500\nabc\n800\n", "setup")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Enter an amount")
	h.requireBalances("2500", "800")
}

func TestSetup_Rejects(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "setup", "--wallet", "-1", "--cash", "0")
	assert.ErrorIs(t, err, ledger.ErrInvalidOpeningBalance)

	h.mustRun("setup", "--wallet", "0", "--cash", "0")
	_, err = h.run("", "setup", "--wallet", "1", "--cash", "1")
	assert.ErrorIs(t, err, ledger.ErrAlreadySetup)
}

func TestRecord_Rejects(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "cash-in", "100")
	assert.ErrorIs(t, err, ledger.ErrUnsetBalances)

	h.mustRun("setup", "--wallet", "5000", "--cash", "10000")

	_, err = h.run("", "cash-in", "0")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = h.run("", "cash-out", "100", "--method", "tip")
	assert.Error(t, err)

	_, err = h.run("", "cash-in", "lots")
	assert.Error(t, err)

	h.requireBalances("5000", "10000")
	assert.Empty(t, h.state().Log)
}

func TestQuote(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("quote", "2300")
	assert.Contains(t, out, "₱55")
	assert.Empty(t, h.state().Log)
}

func TestQuoteLines(t *testing.T) {
	out := quoteLines(decimal.NewFromInt(100), decimal.NewFromInt(10))

	assert.Contains(t, out, "-₱100")
	assert.Contains(t, out, "+₱110")
	assert.Contains(t, out, "-₱90")
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	h.mustRun("setup", "--wallet", "5000", "--cash", "10000")
	h.mustRun("cash-in", "100")

	t.Run("declined", func(t *testing.T) {
		out, err := h.run("n\n", "reset")
		require.NoError(t, err)
		assert.Contains(t, out, "Reset canceled")
		assert.Len(t, h.state().Log, 1)
	})

	t.Run("confirmed", func(t *testing.T) {
		out, err := h.run("y\n", "reset")
		require.NoError(t, err, out)
		assert.Contains(t, out, "Deleted 1 transactions")

		state := h.state()
		assert.False(t, state.IsSetup())
		assert.Empty(t, state.Log)
	})

	t.Run("reset took a checkpoint", func(t *testing.T) {
		out := h.mustRun("checkpoint", "list")
		assert.Contains(t, out, "auto")
	})

	t.Run("nothing left", func(t *testing.T) {
		out := h.mustRun("reset", "--force")
		assert.Contains(t, out, "Nothing to reset")
	})
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("setup", "--wallet", "5000", "--cash", "10000")
	h.mustRun("cash-in", "100")
	h.mustRun("cash-out", "300", "--method", "separate")

	csvOut := h.mustRun("export", "--format", "csv")
	assert.Contains(t, csvOut, "Date,Type,Amount,Profit,Method")
	assert.Contains(t, csvOut, "CASH_OUT,300,15,separate")

	snapshot := filepath.Join(t.TempDir(), "backup.json")
	h.mustRun("export", "--format", "json", "-o", snapshot)
	data, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"gcash": 5200`)

	before := h.state()
	h.mustRun("reset", "--force")
	h.mustRun("import", snapshot)

	after := h.state()
	require.Len(t, after.Log, 2)
	assert.True(t, after.Balances.Equal(*before.Balances))
	assert.True(t, after.Opening.Equal(*before.Opening))
	assert.True(t, after.Log[1].Fee.Equal(decimal.NewFromInt(15)))
	h.mustRun("verify")

	_, err = h.run("", "export", "--format", "xml")
	assert.Error(t, err)
}

func TestImport_BrowserSnapshot(t *testing.T) {
	h := newHarness(t)
	h.mustRun("setup", "--wallet", "1", "--cash", "1")

	doc := `{
  "balances": {"gcash": 4900, "cash": 10110},
  "transactions": [
    {"date": "2025-03-14T02:00:00.000Z", "type": "CASH_IN", "amount": 100, "profit": 10}
  ]
}`
	path := filepath.Join(t.TempDir(), "cashFlowData.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	t.Run("declined keeps the ledger", func(t *testing.T) {
		out, err := h.run("n\n", "import", path)
		require.NoError(t, err, out)
		h.requireBalances("1", "1")
	})

	t.Run("confirmed replaces it", func(t *testing.T) {
		out, err := h.run("y\n", "import", path)
		require.NoError(t, err, out)
		assert.Contains(t, out, "Imported 1 transactions")
		h.requireBalances("4900", "10110")

		state := h.state()
		assert.True(t, state.Opening.Wallet.Equal(decimal.NewFromInt(5000)))
		assert.True(t, state.Opening.Cash.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("invalid document", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"transactions":[{"type":"REFUND","amount":1,"profit":0,"date":"2025-03-14T02:00:00Z"}]}`), 0o600))
		_, err := h.run("", "import", "--force", bad)
		assert.Error(t, err)
		h.requireBalances("4900", "10110")
	})
}

func TestCheckpointCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("setup", "--wallet", "5000", "--cash", "10000")

	out := h.mustRun("checkpoint", "create", "--tag", "opening", "-d", "fresh ledger")
	assert.Contains(t, out, "opening")

	h.mustRun("cash-in", "100")
	h.requireBalances("4900", "10110")

	out = h.mustRun("checkpoint", "list")
	assert.Contains(t, out, "opening")
	assert.Contains(t, out, "manual")

	h.mustRun("checkpoint", "restore", "opening", "--force")
	h.requireBalances("5000", "10000")
	assert.Empty(t, h.state().Log)

	h.mustRun("checkpoint", "delete", "opening", "--force")
	out = h.mustRun("checkpoint", "list")
	assert.NotContains(t, out, "opening")

	_, err := h.run("", "checkpoint", "restore", "missing", "--force")
	assert.ErrorIs(t, err, storage.ErrCheckpointNotFound)
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	h.mustRun("setup", "--wallet", "5000", "--cash", "10000")
	h.mustRun("cash-in", "100")
	h.mustRun("cash-out", "2000")

	out := h.mustRun("history")
	assert.Contains(t, out, "Cash-In")
	assert.Contains(t, out, "Cash-Out")
	assert.Contains(t, out, "2 shown")

	out = h.mustRun("history", "--direction", "cash-out")
	assert.NotContains(t, out, "Cash-In")
	assert.Contains(t, out, "1 shown")

	_, err := h.run("", "history", "--direction", "sideways")
	assert.ErrorIs(t, err, service.ErrInvalidFilter)
}

func TestHistoryOptions_Filter(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{Location: manila})
	a := &app{tracker: l.Tracker}

	filter, err := historyOptions{
		since:      "2025-03-01",
		until:      "2025-03-14",
		min:        "₱1,000",
		directions: []string{"in", "CASH_OUT"},
		limit:      5,
	}.filter(a)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, manila), *filter.Since)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, manila), *filter.Until)
	assert.Equal(t, []model.TransactionDirection{model.DirectionCashIn, model.DirectionCashOut}, filter.Directions)
	require.Len(t, filter.Amount, 1)
	assert.Equal(t, service.OpGreaterThanOrEqual, filter.Amount[0].Op)
	assert.True(t, filter.Amount[0].Value.Equal(decimal.NewFromInt(1000)))
	assert.True(t, filter.NewestFirst)
	assert.Equal(t, 5, filter.Limit)

	_, err = historyOptions{since: "2025-03-10", until: "2025-03-01"}.filter(a)
	assert.ErrorIs(t, err, service.ErrInvalidFilter)

	_, err = historyOptions{since: "yesterday"}.filter(a)
	assert.ErrorIs(t, err, service.ErrInvalidFilter)
}

func TestProfits_RejectsDays(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "profits", "--days", "0")
	assert.Error(t, err)
}

func TestMigrateAndVersion(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("migrate")
	assert.Contains(t, out, "schema version")

	out = h.mustRun("version")
	assert.Contains(t, out, "cashflow dev")
}

func TestNew_RequiresSetup(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "new")
	assert.ErrorIs(t, err, ledger.ErrUnsetBalances)
}

func TestExplain(t *testing.T) {
	err := explain(fmt.Errorf("record: %w", ledger.ErrUnsetBalances))
	assert.ErrorIs(t, err, ledger.ErrUnsetBalances)
	assert.Contains(t, common.UserMessage(err), "cashflow setup")

	plain := errors.New("boom")
	assert.Same(t, plain, explain(plain))
}
