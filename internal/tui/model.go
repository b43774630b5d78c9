// Package tui is the interactive transaction form: type an amount, pick the
// direction and, for cash-outs, where the fee goes, and see the fee before
// recording.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/cli"
	"github.com/Veraticus/cashflow/internal/ledger"
	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/tui/themes"
)

// Ledger is what the form records into. *tracker.Tracker satisfies it.
type Ledger interface {
	Record(ctx context.Context, req ledger.Request) (model.Transaction, model.BalancePair, error)
	Quote(amount decimal.Decimal) (decimal.Decimal, error)
	Balances() (model.BalancePair, bool)
}

// Field is a focusable form row.
type Field int

// Form fields in tab order.
const (
	FieldAmount Field = iota
	FieldDirection
	FieldMethod
)

var (
	directions = []model.TransactionDirection{model.DirectionCashIn, model.DirectionCashOut}
	methods    = []model.FeeMethod{model.FeeIncluded, model.FeeSeparate}
)

// Model holds the form state.
type Model struct {
	ctx       context.Context
	ledger    Ledger
	lastError error
	estimate  *decimal.Decimal
	recorded  []model.Transaction
	balances  *model.BalancePair
	theme     themes.Theme
	location  *time.Location
	help      help.Model
	keymap    KeyMap
	amount    textinput.Model
	focus     Field
	direction int
	method    int
	width     int
	height    int
	busy      bool
	quitting  bool
}

// NewModel builds a form over l. ctx bounds every record.
func NewModel(ctx context.Context, l Ledger, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	in := textinput.New()
	in.Placeholder = "0.00"
	in.Prompt = "₱ "
	in.CharLimit = 16
	in.Focus()

	m := Model{
		ctx:      ctx,
		ledger:   l,
		theme:    cfg.Theme,
		location: cfg.Location,
		help:     help.New(),
		keymap:   DefaultKeyMap(),
		amount:   in,
		width:    cfg.Width,
		height:   cfg.Height,
	}
	if b, ok := l.Balances(); ok {
		m.balances = &b
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Direction is the selected direction.
func (m Model) Direction() model.TransactionDirection {
	return directions[m.direction]
}

// FeeMethod is the selected method; always FeeNone for cash-in.
func (m Model) FeeMethod() model.FeeMethod {
	if m.Direction() == model.DirectionCashIn {
		return model.FeeNone
	}
	return methods[m.method]
}

// Recorded lists what this session committed, oldest first.
func (m Model) Recorded() []model.Transaction {
	return m.recorded
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case recordedMsg:
		m.busy = false
		m.lastError = nil
		m.recorded = append(m.recorded, msg.transaction)
		b := msg.balances
		m.balances = &b
		m.amount.SetValue("")
		m.estimate = nil
		return m, nil

	case errorMsg:
		m.busy = false
		m.lastError = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case m.busy:
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		return m.submit()

	case key.Matches(msg, m.keymap.NextField):
		return m.setFocus(m.nextField(1)), nil

	case key.Matches(msg, m.keymap.PrevField):
		return m.setFocus(m.nextField(-1)), nil
	}

	if m.focus == FieldAmount {
		var cmd tea.Cmd
		m.amount, cmd = m.amount.Update(msg)
		m.refreshEstimate()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keymap.Left):
		m.cycle(-1)
	case key.Matches(msg, m.keymap.Right):
		m.cycle(1)
	}
	return m, nil
}

// fields are the rows currently shown; the method row only exists for cash-outs.
func (m Model) fields() []Field {
	if m.Direction() == model.DirectionCashOut {
		return []Field{FieldAmount, FieldDirection, FieldMethod}
	}
	return []Field{FieldAmount, FieldDirection}
}

func (m Model) nextField(step int) Field {
	fields := m.fields()
	idx := 0
	for i, f := range fields {
		if f == m.focus {
			idx = i
		}
	}
	idx = (idx + step + len(fields)) % len(fields)
	return fields[idx]
}

func (m Model) setFocus(f Field) Model {
	m.focus = f
	if f == FieldAmount {
		m.amount.Focus()
	} else {
		m.amount.Blur()
	}
	return m
}

func (m *Model) cycle(step int) {
	switch m.focus {
	case FieldDirection:
		m.direction = (m.direction + step + len(directions)) % len(directions)
	case FieldMethod:
		m.method = (m.method + step + len(methods)) % len(methods)
	}
}

func (m *Model) refreshEstimate() {
	m.estimate = nil
	amount, err := cli.ParseAmount(m.amount.Value())
	if err != nil {
		return
	}
	if charged, err := m.ledger.Quote(amount); err == nil {
		m.estimate = &charged
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	amount, err := cli.ParseAmount(m.amount.Value())
	if err != nil {
		m.lastError = ledger.ErrInvalidAmount
		return m, nil
	}

	m.busy = true
	m.lastError = nil
	req := ledger.Request{Amount: amount, Direction: m.Direction(), FeeMethod: m.FeeMethod()}
	l, ctx := m.ledger, m.ctx
	return m, func() tea.Msg {
		txn, balances, err := l.Record(ctx, req)
		if err != nil {
			return errorMsg{err: err}
		}
		return recordedMsg{transaction: txn, balances: balances}
	}
}
