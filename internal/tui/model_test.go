package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/cashflow/internal/common"
	"github.com/Veraticus/cashflow/internal/fee"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/testutil"
)

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

// submit presses enter and feeds the record result back into the model.
func submit(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := press(t, m, tea.KeyEnter)
	if cmd == nil {
		return m
	}
	assert.True(t, m.busy)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestModel_RecordsCashIn(t *testing.T) {
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{Opening: testutil.Pair("5000", "10000")})
	m := NewModel(context.Background(), l.Tracker)

	m = typeText(t, m, "100")
	require.NotNil(t, m.estimate)
	assert.True(t, m.estimate.Equal(decimal.NewFromInt(10)))
	assert.Contains(t, m.View(), "Estimated profit: ₱10")

	m = submit(t, m)
	require.Len(t, m.Recorded(), 1)
	assert.Equal(t, model.DirectionCashIn, m.Recorded()[0].Direction)
	assert.Empty(t, m.amount.Value(), "amount is cleared for the next entry")
	assert.Nil(t, m.estimate)
	assert.Contains(t, m.View(), "Recorded Cash-In ₱100")
	l.RequireBalances("4900", "10110")
}

func TestModel_CashOutSeparate(t *testing.T) {
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{Opening: testutil.Pair("5000", "10000")})
	m := NewModel(context.Background(), l.Tracker)

	m = typeText(t, m, "300")
	assert.NotContains(t, m.View(), "separate", "fee row hidden for cash-in")

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, FieldDirection, m.focus)
	m, _ = press(t, m, tea.KeyRight)
	assert.Equal(t, model.DirectionCashOut, m.Direction())
	assert.Equal(t, model.FeeIncluded, m.FeeMethod())

	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, FieldMethod, m.focus)
	m, _ = press(t, m, tea.KeyRight)
	assert.Equal(t, model.FeeSeparate, m.FeeMethod())

	m = submit(t, m)
	require.Len(t, m.Recorded(), 1)
	assert.Equal(t, model.FeeSeparate, m.Recorded()[0].FeeMethod)
	l.RequireBalances("5300", "9715")
}

func TestModel_FocusWraps(t *testing.T) {
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{})
	m := NewModel(context.Background(), l.Tracker)

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyTab)
	assert.Equal(t, FieldAmount, m.focus, "cash-in has two rows")

	m, _ = press(t, m, tea.KeyShiftTab)
	assert.Equal(t, FieldDirection, m.focus)
	m, _ = press(t, m, tea.KeyLeft)
	assert.Equal(t, model.DirectionCashOut, m.Direction())
	m, _ = press(t, m, tea.KeyShiftTab)
	m, _ = press(t, m, tea.KeyShiftTab)
	assert.Equal(t, FieldMethod, m.focus)
}

func TestModel_InvalidAmount(t *testing.T) {
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{Opening: testutil.Pair("5000", "10000")})
	m := NewModel(context.Background(), l.Tracker)

	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.lastError, ledger.ErrInvalidAmount)

	m = typeText(t, m, "abc")
	assert.Nil(t, m.estimate)

	m = typeText(t, NewModel(context.Background(), l.Tracker), "0")
	m = submit(t, m)
	assert.ErrorIs(t, m.lastError, ledger.ErrInvalidAmount)
	assert.Empty(t, m.Recorded())
	l.RequireBalances("5000", "10000")
}

func TestModel_ShowsRecordErrors(t *testing.T) {
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{})
	m := NewModel(context.Background(), l.Tracker)

	m = submit(t, typeText(t, m, "50"))
	assert.ErrorIs(t, m.lastError, ledger.ErrUnsetBalances)
	assert.Contains(t, m.View(), "balances have not been set up")
	assert.False(t, m.busy)
}

type failingLedger struct {
	engine *ledger.Engine
}

func (f failingLedger) Record(context.Context, ledger.Request) (model.Transaction, model.BalancePair, error) {
	return model.Transaction{}, model.BalancePair{}, errors.Join(common.ErrPersistence, errors.New("disk full"))
}

func (f failingLedger) Quote(amount decimal.Decimal) (decimal.Decimal, error) {
	return f.engine.Quote(amount)
}

func (f failingLedger) Balances() (model.BalancePair, bool) {
	return model.BalancePair{}, false
}

func TestModel_PersistenceFailureKeepsInput(t *testing.T) {
	m := NewModel(context.Background(), failingLedger{engine: ledger.NewEngine(fee.DefaultSchedule())})

	m = submit(t, typeText(t, m, "75"))
	assert.ErrorIs(t, m.lastError, common.ErrPersistence)
	assert.Equal(t, "75", m.amount.Value())
	assert.Empty(t, m.Recorded())
}

func TestModel_KeysIgnoredWhileBusy(t *testing.T) {
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{Opening: testutil.Pair("5000", "10000")})
	m := typeText(t, NewModel(context.Background(), l.Tracker), "20")

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	m, second := press(t, m, tea.KeyEnter)
	assert.Nil(t, second)
	assert.True(t, m.busy)
}

func TestModel_Quit(t *testing.T) {
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{})
	m := NewModel(context.Background(), l.Tracker)

	m, cmd := press(t, m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_WindowSize(t *testing.T) {
	l := testutil.SetupTestLedger(t, testutil.TestLedgerOptions{})
	next, _ := NewModel(context.Background(), l.Tracker).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := next.(Model)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestRun_RequiresLedger(t *testing.T) {
	_, err := Run(context.Background(), nil)
	assert.Error(t, err)
}
