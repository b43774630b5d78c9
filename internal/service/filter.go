package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashflow/internal/model"
)

// ErrInvalidFilter is returned for filters that can never match or cannot be built.
var ErrInvalidFilter = errors.New("invalid transaction filter")

// CompareOp is a comparison applied to a transaction field.
type CompareOp string

// Supported comparison operators.
const (
	OpEqual              CompareOp = "eq"
	OpNotEqual           CompareOp = "ne"
	OpGreaterThan        CompareOp = "gt"
	OpGreaterThanOrEqual CompareOp = "gte"
	OpLessThan           CompareOp = "lt"
	OpLessThanOrEqual    CompareOp = "lte"
)

// SQL returns the SQL operator for op.
func (op CompareOp) SQL() (string, error) {
	switch op {
	case OpEqual:
		return "=", nil
	case OpNotEqual:
		return "<>", nil
	case OpGreaterThan:
		return ">", nil
	case OpGreaterThanOrEqual:
		return ">=", nil
	case OpLessThan:
		return "<", nil
	case OpLessThanOrEqual:
		return "<=", nil
	default:
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, op)
	}
}

// AmountCondition compares a transaction amount against Value.
type AmountCondition struct {
	Value decimal.Decimal
	Op    CompareOp
}

// Match applies the condition to amount.
func (c AmountCondition) Match(amount decimal.Decimal) bool {
	cmp := amount.Cmp(c.Value)
	switch c.Op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreaterThan:
		return cmp > 0
	case OpGreaterThanOrEqual:
		return cmp >= 0
	case OpLessThan:
		return cmp < 0
	case OpLessThanOrEqual:
		return cmp <= 0
	default:
		return false
	}
}

// ParseAmountCondition parses "gte:500" style conditions. A bare number means equality.
func ParseAmountCondition(raw string) (AmountCondition, error) {
	op, value, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found {
		op, value = string(OpEqual), op
	}
	cond := AmountCondition{Op: CompareOp(strings.ToLower(op))}
	if _, err := cond.Op.SQL(); err != nil {
		return AmountCondition{}, err
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return AmountCondition{}, fmt.Errorf("%w: amount %q", ErrInvalidFilter, value)
	}
	cond.Value = d
	return cond, nil
}

// TransactionFilter defines filtering options for transaction queries.
// Zero fields do not filter.
type TransactionFilter struct {
	Since       *time.Time // inclusive
	Until       *time.Time // exclusive
	Directions  []model.TransactionDirection
	Amount      []AmountCondition
	Limit       int
	Offset      int
	NewestFirst bool
}

// Validate rejects filters storage cannot run.
func (f TransactionFilter) Validate() error {
	if f.Limit < 0 || f.Offset < 0 {
		return fmt.Errorf("%w: limit and offset cannot be negative", ErrInvalidFilter)
	}
	if f.Since != nil && f.Until != nil && !f.Until.After(*f.Since) {
		return fmt.Errorf("%w: until must be after since", ErrInvalidFilter)
	}
	for _, d := range f.Directions {
		if !d.Valid() {
			return fmt.Errorf("%w: direction %q", ErrInvalidFilter, d)
		}
	}
	for _, c := range f.Amount {
		if _, err := c.Op.SQL(); err != nil {
			return err
		}
	}
	return nil
}

// Match reports whether txn passes every condition except paging.
func (f TransactionFilter) Match(txn model.Transaction) bool {
	if f.Since != nil && txn.Timestamp.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !txn.Timestamp.Before(*f.Until) {
		return false
	}
	if len(f.Directions) > 0 {
		found := false
		for _, d := range f.Directions {
			if txn.Direction == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, c := range f.Amount {
		if !c.Match(txn.Amount) {
			return false
		}
	}
	return true
}

// Apply filters and pages an in-memory, chronologically ordered log.
func (f TransactionFilter) Apply(log []model.Transaction) []model.Transaction {
	matched := make([]model.Transaction, 0, len(log))
	for _, txn := range log {
		if f.Match(txn) {
			matched = append(matched, txn)
		}
	}
	if f.NewestFirst {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []model.Transaction{}
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched
}
