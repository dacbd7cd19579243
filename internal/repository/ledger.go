package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// recordRow is one row of the transaction_records table
type recordRow struct {
	ID                   int64
	AccountID            int64
	Kind                 string
	Amount               string
	BalanceAfter         string
	CounterpartAccountID *int64
	TransferID           *uuid.UUID
	Note                 string
	CreatedAt            time.Time
}

func toRecordRow(rec model.TransactionRecord) recordRow {
	return recordRow{
		ID:                   rec.ID,
		AccountID:            rec.AccountID,
		Kind:                 string(rec.Kind),
		Amount:               rec.Amount.String(),
		BalanceAfter:         rec.BalanceAfter.String(),
		CounterpartAccountID: rec.CounterpartAccountID,
		TransferID:           rec.TransferID,
		Note:                 rec.Note,
		CreatedAt:            rec.Timestamp,
	}
}

func (r recordRow) record() (model.TransactionRecord, error) {
	amount, err := parseMoney(r.Amount)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("%w: record %d amount: %w", model.ErrCorruptSnapshot, r.ID, err)
	}
	balanceAfter, err := parseMoney(r.BalanceAfter)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("%w: record %d balance_after: %w", model.ErrCorruptSnapshot, r.ID, err)
	}

	return model.TransactionRecord{
		ID:                   r.ID,
		Kind:                 model.Kind(r.Kind),
		Amount:               amount,
		AccountID:            r.AccountID,
		CounterpartAccountID: r.CounterpartAccountID,
		TransferID:           r.TransferID,
		BalanceAfter:         balanceAfter,
		Timestamp:            r.CreatedAt.UTC(),
		Note:                 r.Note,
	}, nil
}

// insertRecords writes ledger records within a database transaction
func insertRecords(ctx context.Context, dbTx pgx.Tx, rows []recordRow) error {
	query := `
		INSERT INTO transaction_records (
			id, account_id, kind, amount, balance_after,
			counterpart_account_id, transfer_id, note, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, row := range rows {
		_, err := dbTx.Exec(ctx, query,
			row.ID,
			row.AccountID,
			row.Kind,
			row.Amount,
			row.BalanceAfter,
			row.CounterpartAccountID,
			row.TransferID,
			row.Note,
			row.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create transaction record %d: %w", row.ID, err)
		}
	}

	return nil
}

// listRecords reads every ledger record, oldest first within each account
func listRecords(ctx context.Context, q querier) ([]recordRow, error) {
	query := `
		SELECT id, account_id, kind, amount::text, balance_after::text,
		       counterpart_account_id, transfer_id, note, created_at
		FROM transaction_records
		ORDER BY account_id, id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction records: %w", err)
	}
	defer rows.Close()

	var out []recordRow
	for rows.Next() {
		var row recordRow
		err := rows.Scan(
			&row.ID,
			&row.AccountID,
			&row.Kind,
			&row.Amount,
			&row.BalanceAfter,
			&row.CounterpartAccountID,
			&row.TransferID,
			&row.Note,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction records: %w", err)
	}
	return out, nil
}
