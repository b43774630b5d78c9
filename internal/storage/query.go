package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/cashflow/internal/model"
	"github.com/Veraticus/cashflow/internal/service"
)

// Queryable is satisfied by both *sql.DB and *sql.Tx.
type Queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Placeholder func(n int) string
	// CompareAmount renders "amount <op> <placeholder>" exactly.
	CompareAmount func(op, placeholder string) string
	TimeArg       func(time.Time) any
	NoLimit       string
}

// SQLiteDialect stores amounts as TEXT and timestamps as UTC strings. Amounts
// are compared with decimal_cmp, registered on every connection by the
// sqlite3_cashflow driver.
var SQLiteDialect = Dialect{
	Placeholder: func(int) string { return "?" },
	CompareAmount: func(op, placeholder string) string {
		return fmt.Sprintf("%s(amount, %s) %s 0", decimalCompareFunc, placeholder, op)
	},
	TimeArg: func(t time.Time) any { return t.UTC() },
	NoLimit: "-1",
}

// PostgresDialect stores amounts as NUMERIC and timestamps as TIMESTAMPTZ.
var PostgresDialect = Dialect{
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	CompareAmount: func(op, placeholder string) string {
		return "amount " + op + " " + placeholder
	},
	TimeArg: func(t time.Time) any { return t.UTC() },
	NoLimit: "ALL",
}

const transactionColumns = "id, created_at, direction, amount, fee, fee_method"

// BuildListQuery renders filter as a SELECT over the transactions table in
// log order (or reverse log order).
func BuildListQuery(d Dialect, filter service.TransactionFilter) (string, []any, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}

	var (
		where []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}

	if filter.Since != nil {
		where = append(where, "created_at >= "+bind(d.TimeArg(*filter.Since)))
	}
	if filter.Until != nil {
		where = append(where, "created_at < "+bind(d.TimeArg(*filter.Until)))
	}
	if len(filter.Directions) > 0 {
		placeholders := make([]string, 0, len(filter.Directions))
		for _, dir := range filter.Directions {
			placeholders = append(placeholders, bind(string(dir)))
		}
		where = append(where, "direction IN ("+strings.Join(placeholders, ", ")+")")
	}
	for _, cond := range filter.Amount {
		op, err := cond.Op.SQL()
		if err != nil {
			return "", nil, err
		}
		where = append(where, d.CompareAmount(op, bind(cond.Value.String())))
	}

	var b strings.Builder
	b.WriteString("SELECT " + transactionColumns + " FROM transactions")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if filter.NewestFirst {
		b.WriteString(" ORDER BY seq DESC")
	} else {
		b.WriteString(" ORDER BY seq ASC")
	}
	switch {
	case filter.Limit > 0:
		b.WriteString(" LIMIT " + bind(filter.Limit))
	case filter.Offset > 0:
		b.WriteString(" LIMIT " + d.NoLimit)
	}
	if filter.Offset > 0 {
		b.WriteString(" OFFSET " + bind(filter.Offset))
	}

	return b.String(), args, nil
}

// QueryTransactions runs filter against q.
func QueryTransactions(ctx context.Context, q Queryable, d Dialect, filter service.TransactionFilter) ([]model.Transaction, error) {
	query, args, err := BuildListQuery(d, filter)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns := []model.Transaction{}
	for rows.Next() {
		var (
			txn       model.Transaction
			direction string
			method    string
		)
		if err := rows.Scan(&txn.ID, &txn.Timestamp, &direction, &txn.Amount, &txn.Fee, &method); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Direction = model.TransactionDirection(direction)
		txn.FeeMethod = model.FeeMethod(method)
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// InsertTransaction appends txn to the log.
func InsertTransaction(ctx context.Context, q Queryable, d Dialect, txn model.Transaction) error {
	if err := ValidateTransaction(txn); err != nil {
		return err
	}
	query := fmt.Sprintf(
		"INSERT INTO transactions (%s) VALUES (%s, %s, %s, %s, %s, %s)",
		transactionColumns,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4), d.Placeholder(5), d.Placeholder(6),
	)
	_, err := q.ExecContext(ctx, query,
		txn.ID,
		d.TimeArg(txn.Timestamp),
		string(txn.Direction),
		txn.Amount.String(),
		txn.Fee.String(),
		string(txn.FeeMethod),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

// InsertBalances writes the single balances row.
func InsertBalances(ctx context.Context, q Queryable, d Dialect, current, opening model.BalancePair, now time.Time) error {
	query := fmt.Sprintf(
		`INSERT INTO balances (id, wallet, cash, opening_wallet, opening_cash, setup_at, updated_at)
		VALUES (1, %s, %s, %s, %s, %s, %s)`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4), d.Placeholder(5), d.Placeholder(6),
	)
	_, err := q.ExecContext(ctx, query,
		current.Wallet.String(),
		current.Cash.String(),
		opening.Wallet.String(),
		opening.Cash.String(),
		d.TimeArg(now),
		d.TimeArg(now),
	)
	if err != nil {
		return fmt.Errorf("failed to insert balances: %w", err)
	}
	return nil
}

// UpdateBalances overwrites the current balances. It reports whether a row existed.
func UpdateBalances(ctx context.Context, q Queryable, d Dialect, balances model.BalancePair, now time.Time) (bool, error) {
	query := fmt.Sprintf(
		"UPDATE balances SET wallet = %s, cash = %s, updated_at = %s WHERE id = 1",
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3),
	)
	res, err := q.ExecContext(ctx, query, balances.Wallet.String(), balances.Cash.String(), d.TimeArg(now))
	if err != nil {
		return false, fmt.Errorf("failed to update balances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// ReadBalances loads the balances row. ok is false when the ledger is not set up.
func ReadBalances(ctx context.Context, q Queryable, suffix string) (current, opening model.BalancePair, ok bool, err error) {
	row := q.QueryRowContext(ctx,
		"SELECT wallet, cash, opening_wallet, opening_cash FROM balances WHERE id = 1"+suffix)
	err = row.Scan(&current.Wallet, &current.Cash, &opening.Wallet, &opening.Cash)
	if errors.Is(err, sql.ErrNoRows) {
		return current, opening, false, nil
	}
	if err != nil {
		return current, opening, false, fmt.Errorf("failed to read balances: %w", err)
	}
	return current, opening, true, nil
}

// ClearLedger deletes the log and the balances.
func ClearLedger(ctx context.Context, q Queryable) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM balances"); err != nil {
		return fmt.Errorf("failed to delete balances: %w", err)
	}
	return nil
}
