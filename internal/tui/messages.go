package tui

import "github.com/Veraticus/cashflow/internal/model"

// recordedMsg reports a committed transaction.
type recordedMsg struct {
	transaction model.Transaction
	balances    model.BalancePair
}

// errorMsg reports a failed record.
type errorMsg struct {
	err error
}
