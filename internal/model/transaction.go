// Package model holds the value types shared by the ledger, storage and presentation layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection says which way money moves for the customer.
type TransactionDirection string

const (
	// DirectionCashIn is a customer handing over cash for a wallet credit elsewhere.
	DirectionCashIn TransactionDirection = "CASH_IN"
	// DirectionCashOut is a customer withdrawing cash against a wallet debit.
	DirectionCashOut TransactionDirection = "CASH_OUT"
)

// Valid reports whether d is a known direction.
func (d TransactionDirection) Valid() bool {
	return d == DirectionCashIn || d == DirectionCashOut
}

// Label is the short human form used in lists and exports.
func (d TransactionDirection) Label() string {
	switch d {
	case DirectionCashIn:
		return "Cash-In"
	case DirectionCashOut:
		return "Cash-Out"
	default:
		return string(d)
	}
}

// ParseDirection accepts the canonical names plus the dashed/lowercase
// spellings people type on the command line ("cash-in", "in", "out").
func ParseDirection(s string) (TransactionDirection, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "CASH_IN", "CASHIN", "IN":
		return DirectionCashIn, nil
	case "CASH_OUT", "CASHOUT", "OUT":
		return DirectionCashOut, nil
	default:
		return "", fmt.Errorf("unknown transaction direction %q", s)
	}
}

// FeeMethod says where the fee of a cash-out lands.
type FeeMethod string

const (
	// FeeNone is the zero value; cash-in transactions always carry it.
	FeeNone FeeMethod = ""
	// FeeIncluded folds the fee into the wallet credit.
	FeeIncluded FeeMethod = "included"
	// FeeSeparate collects the fee in cash.
	FeeSeparate FeeMethod = "separate"
)

// ParseFeeMethod parses a fee allocation method. An empty string yields FeeNone.
func ParseFeeMethod(s string) (FeeMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return FeeNone, nil
	case "included", "include":
		return FeeIncluded, nil
	case "separate", "cash":
		return FeeSeparate, nil
	default:
		return FeeNone, fmt.Errorf("unknown fee method %q", s)
	}
}

// Transaction is one committed, immutable entry of the log.
type Transaction struct {
	Timestamp time.Time            `json:"timestamp"`
	ID        string               `json:"id"`
	Direction TransactionDirection `json:"direction"`
	FeeMethod FeeMethod            `json:"feeMethod,omitempty"`
	Amount    decimal.Decimal      `json:"amount"`
	Fee       decimal.Decimal      `json:"fee"`
}

// MethodLabel is the fee method as shown in exports, "N/A" for cash-in.
func (t Transaction) MethodLabel() string {
	if t.FeeMethod == FeeNone {
		return "N/A"
	}
	return string(t.FeeMethod)
}
