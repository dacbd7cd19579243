package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema lists the ledger tables in dependency order. Every statement is
// idempotent so Initialize can run on each startup.
var schema = []struct {
	table string
	ddl   string
}{
	{"ledger_meta", `
		CREATE TABLE IF NOT EXISTS ledger_meta (
			id         SMALLINT PRIMARY KEY CHECK (id = 1),
			bank_name  TEXT NOT NULL,
			storage    TEXT NOT NULL,
			version    INTEGER NOT NULL,
			saved_at   TIMESTAMPTZ NOT NULL
		)`},
	{"customers", `
		CREATE TABLE IF NOT EXISTS customers (
			id        UUID PRIMARY KEY,
			position  INTEGER NOT NULL,
			name      TEXT NOT NULL,
			age       INTEGER NOT NULL CHECK (age >= 18),
			address   TEXT NOT NULL DEFAULT ''
		)`},
	{"accounts", `
		CREATE TABLE IF NOT EXISTS accounts (
			id               BIGINT PRIMARY KEY,
			customer_id      UUID NOT NULL REFERENCES customers (id),
			position         INTEGER NOT NULL,
			account_type     TEXT NOT NULL CHECK (account_type IN ('savings', 'checking')),
			opening_balance  NUMERIC NOT NULL CHECK (opening_balance >= 0),
			balance          NUMERIC NOT NULL,
			frozen           BOOLEAN NOT NULL DEFAULT FALSE,
			interest_rate    NUMERIC NOT NULL DEFAULT 0,
			minimum_balance  NUMERIC NOT NULL DEFAULT 0,
			overdraft_limit  NUMERIC NOT NULL DEFAULT 0,
			monthly_fee      NUMERIC NOT NULL DEFAULT 0
		)`},
	{"transaction_records", `
		CREATE TABLE IF NOT EXISTS transaction_records (
			id                      BIGINT PRIMARY KEY,
			account_id              BIGINT NOT NULL REFERENCES accounts (id),
			kind                    TEXT NOT NULL CHECK (kind IN ('deposit', 'withdraw', 'transfer_out', 'transfer_in')),
			amount                  NUMERIC NOT NULL CHECK (amount > 0),
			balance_after           NUMERIC NOT NULL,
			counterpart_account_id  BIGINT,
			transfer_id             UUID,
			note                    TEXT NOT NULL DEFAULT '',
			created_at              TIMESTAMPTZ NOT NULL
		)`},
	{"transaction_records_account_idx", `
		CREATE INDEX IF NOT EXISTS transaction_records_account_idx
			ON transaction_records (account_id, id)`},
}

// Initialize ensures the ledger schema exists.
// This should be called on startup after the database connection is established.
func Initialize(ctx context.Context, db *pgxpool.Pool) error {
	for _, s := range schema {
		if _, err := db.Exec(ctx, s.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.table, err)
		}
	}

	log.Printf("Ledger schema ready (%d objects)", len(schema))
	return nil
}
