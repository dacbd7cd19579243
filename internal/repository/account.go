package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// accountRow is one row of the accounts table. Money travels as text and is
// stored as NUMERIC.
type accountRow struct {
	ID             int64
	CustomerID     uuid.UUID
	Position       int
	AccountType    string
	OpeningBalance string
	Balance        string
	Frozen         bool
	InterestRate   string
	MinimumBalance string
	OverdraftLimit string
	MonthlyFee     string
}

func toAccountRow(a model.AccountSnapshot, customerID uuid.UUID, position int) accountRow {
	return accountRow{
		ID:             a.ID,
		CustomerID:     customerID,
		Position:       position,
		AccountType:    string(a.Type),
		OpeningBalance: a.OpeningBalance.String(),
		Balance:        a.Balance.String(),
		Frozen:         a.Frozen,
		InterestRate:   a.InterestRate.String(),
		MinimumBalance: a.MinimumBalance.String(),
		OverdraftLimit: a.OverdraftLimit.String(),
		MonthlyFee:     a.MonthlyFee.String(),
	}
}

func (r accountRow) snapshot() (model.AccountSnapshot, error) {
	snap := model.AccountSnapshot{
		ID:     r.ID,
		Type:   model.AccountType(r.AccountType),
		Frozen: r.Frozen,
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"opening_balance", r.OpeningBalance, &snap.OpeningBalance},
		{"balance", r.Balance, &snap.Balance},
		{"interest_rate", r.InterestRate, &snap.InterestRate},
		{"minimum_balance", r.MinimumBalance, &snap.MinimumBalance},
		{"overdraft_limit", r.OverdraftLimit, &snap.OverdraftLimit},
		{"monthly_fee", r.MonthlyFee, &snap.MonthlyFee},
	}
	for _, f := range fields {
		v, err := parseMoney(f.raw)
		if err != nil {
			return snap, fmt.Errorf("%w: account %d %s: %w", model.ErrCorruptSnapshot, r.ID, f.name, err)
		}
		*f.dst = v
	}
	return snap, nil
}

// insertAccounts writes account rows within a database transaction
func insertAccounts(ctx context.Context, dbTx pgx.Tx, rows []accountRow) error {
	query := `
		INSERT INTO accounts (
			id, customer_id, position, account_type,
			opening_balance, balance, frozen,
			interest_rate, minimum_balance, overdraft_limit, monthly_fee
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, row := range rows {
		_, err := dbTx.Exec(ctx, query,
			row.ID,
			row.CustomerID,
			row.Position,
			row.AccountType,
			row.OpeningBalance,
			row.Balance,
			row.Frozen,
			row.InterestRate,
			row.MinimumBalance,
			row.OverdraftLimit,
			row.MonthlyFee,
		)
		if err != nil {
			return fmt.Errorf("failed to create account %d: %w", row.ID, err)
		}
	}

	return nil
}

// listAccounts reads every account, ordered by owner insertion order
func listAccounts(ctx context.Context, q querier) ([]accountRow, error) {
	query := `
		SELECT id, customer_id, position, account_type,
		       opening_balance::text, balance::text, frozen,
		       interest_rate::text, minimum_balance::text, overdraft_limit::text, monthly_fee::text
		FROM accounts
		ORDER BY customer_id, position
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	defer rows.Close()

	var out []accountRow
	for rows.Next() {
		var row accountRow
		err := rows.Scan(
			&row.ID,
			&row.CustomerID,
			&row.Position,
			&row.AccountType,
			&row.OpeningBalance,
			&row.Balance,
			&row.Frozen,
			&row.InterestRate,
			&row.MinimumBalance,
			&row.OverdraftLimit,
			&row.MonthlyFee,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	return out, nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
