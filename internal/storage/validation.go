// Package storage provides the data persistence layer for the cash ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/cashflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidBalances    = errors.New("invalid balances")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// ValidateTransaction checks the fields every stored record must carry.
func ValidateTransaction(txn model.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidTransaction)
	}
	if !txn.Direction.Valid() {
		return fmt.Errorf("%w: direction %q", ErrInvalidTransaction, txn.Direction)
	}
	if !txn.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if txn.Fee.IsNegative() {
		return fmt.Errorf("%w: fee cannot be negative", ErrInvalidTransaction)
	}
	switch txn.FeeMethod {
	case model.FeeNone, model.FeeIncluded, model.FeeSeparate:
	default:
		return fmt.Errorf("%w: fee method %q", ErrInvalidTransaction, txn.FeeMethod)
	}
	return nil
}
