package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// customerRow is one row of the customers table
type customerRow struct {
	ID       uuid.UUID
	Position int
	Name     string
	Age      int
	Address  string
}

func toCustomerRow(c model.CustomerSnapshot, position int) customerRow {
	return customerRow{
		ID:       c.ID,
		Position: position,
		Name:     c.Name,
		Age:      c.Age,
		Address:  c.Address,
	}
}

func (r customerRow) snapshot() model.CustomerSnapshot {
	return model.CustomerSnapshot{
		ID:      r.ID,
		Name:    r.Name,
		Age:     r.Age,
		Address: r.Address,
	}
}

// insertCustomers writes customer rows within a database transaction
func insertCustomers(ctx context.Context, dbTx pgx.Tx, rows []customerRow) error {
	query := `
		INSERT INTO customers (id, position, name, age, address)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, row := range rows {
		_, err := dbTx.Exec(ctx, query,
			row.ID,
			row.Position,
			row.Name,
			row.Age,
			row.Address,
		)
		if err != nil {
			return fmt.Errorf("failed to create customer %s: %w", row.ID, err)
		}
	}

	return nil
}

// listCustomers reads every customer in insertion order
func listCustomers(ctx context.Context, q querier) ([]customerRow, error) {
	query := `
		SELECT id, position, name, age, address
		FROM customers
		ORDER BY position
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get customers: %w", err)
	}
	defer rows.Close()

	var out []customerRow
	for rows.Next() {
		var row customerRow
		err := rows.Scan(
			&row.ID,
			&row.Position,
			&row.Name,
			&row.Age,
			&row.Address,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}
	return out, nil
}
