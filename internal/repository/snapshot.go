package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simonkvalheim/oop-ledger/internal/model"
	"github.com/simonkvalheim/oop-ledger/internal/storage"
)

// StoragePostgres identifies snapshots written by SnapshotRepository
const StoragePostgres = "postgres"

// ErrSchemaMissing is returned when the ledger tables have not been created
var ErrSchemaMissing = errors.New("ledger schema not initialized")

// querier is the part of pgxpool.Pool and pgx.Tx the read helpers need
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SnapshotRepository stores the whole bank as rows: one meta row plus the
// customers, accounts and transaction_records tables
type SnapshotRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

// Save replaces everything stored with snap in a single database transaction
func (r *SnapshotRepository) Save(ctx context.Context, snap model.BankSnapshot) error {
	snap.Meta.Storage = StoragePostgres
	snap.Meta.Version = model.SnapshotVersion
	snap.Meta.SavedAt = r.now().UTC().Truncate(time.Microsecond)
	rows := flatten(snap)

	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	// Children first so the foreign keys never dangle.
	for _, table := range []string{"transaction_records", "accounts", "customers", "ledger_meta"} {
		if _, err := dbTx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, schemaError(err))
		}
	}

	_, err = dbTx.Exec(ctx, `
		INSERT INTO ledger_meta (id, bank_name, storage, version, saved_at)
		VALUES (1, $1, $2, $3, $4)
	`, rows.meta.Name, rows.meta.Storage, rows.meta.Version, rows.meta.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to write snapshot meta: %w", err)
	}

	if err := insertCustomers(ctx, dbTx, rows.customers); err != nil {
		return err
	}
	if err := insertAccounts(ctx, dbTx, rows.accounts); err != nil {
		return err
	}
	if err := insertRecords(ctx, dbTx, rows.records); err != nil {
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load reads the stored bank back. It returns storage.ErrNoSnapshot when
// nothing has been saved yet.
func (r *SnapshotRepository) Load(ctx context.Context) (model.BankSnapshot, error) {
	dbTx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return model.BankSnapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	var rows snapshotRows
	err = dbTx.QueryRow(ctx, `
		SELECT bank_name, storage, version, saved_at
		FROM ledger_meta
		WHERE id = 1
	`).Scan(&rows.meta.Name, &rows.meta.Storage, &rows.meta.Version, &rows.meta.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.BankSnapshot{}, storage.ErrNoSnapshot
	}
	if err != nil {
		return model.BankSnapshot{}, fmt.Errorf("failed to get snapshot meta: %w", schemaError(err))
	}

	if rows.customers, err = listCustomers(ctx, dbTx); err != nil {
		return model.BankSnapshot{}, err
	}
	if rows.accounts, err = listAccounts(ctx, dbTx); err != nil {
		return model.BankSnapshot{}, err
	}
	if rows.records, err = listRecords(ctx, dbTx); err != nil {
		return model.BankSnapshot{}, err
	}

	return rows.assemble()
}

type metaRow struct {
	Name    string
	Storage string
	Version int
	SavedAt time.Time
}

// snapshotRows is a bank snapshot flattened into table rows
type snapshotRows struct {
	meta      metaRow
	customers []customerRow
	accounts  []accountRow
	records   []recordRow
}

func flatten(snap model.BankSnapshot) snapshotRows {
	out := snapshotRows{
		meta: metaRow{
			Name:    snap.Name,
			Storage: snap.Meta.Storage,
			Version: snap.Meta.Version,
			SavedAt: snap.Meta.SavedAt,
		},
	}
	for i, c := range snap.Customers {
		out.customers = append(out.customers, toCustomerRow(c, i))
		for j, a := range c.Accounts {
			out.accounts = append(out.accounts, toAccountRow(a, c.ID, j))
			for _, rec := range a.History {
				out.records = append(out.records, toRecordRow(rec))
			}
		}
	}
	return out
}

// assemble rebuilds the nested snapshot. Rows are expected in the order the
// list helpers return them.
func (s snapshotRows) assemble() (model.BankSnapshot, error) {
	snap := model.BankSnapshot{
		Meta: model.SnapshotMeta{
			Storage: s.meta.Storage,
			Version: s.meta.Version,
			SavedAt: s.meta.SavedAt.UTC(),
		},
		Name:      s.meta.Name,
		Customers: make([]model.CustomerSnapshot, 0, len(s.customers)),
	}

	history := make(map[int64][]model.TransactionRecord)
	for _, row := range s.records {
		rec, err := row.record()
		if err != nil {
			return model.BankSnapshot{}, err
		}
		history[row.AccountID] = append(history[row.AccountID], rec)
	}

	accounts := make(map[uuid.UUID][]model.AccountSnapshot)
	for _, row := range s.accounts {
		a, err := row.snapshot()
		if err != nil {
			return model.BankSnapshot{}, err
		}
		a.History = history[row.ID]
		if a.History == nil {
			a.History = []model.TransactionRecord{}
		}
		accounts[row.CustomerID] = append(accounts[row.CustomerID], a)
	}

	for _, row := range s.customers {
		c := row.snapshot()
		c.Accounts = accounts[row.ID]
		if c.Accounts == nil {
			c.Accounts = []model.AccountSnapshot{}
		}
		snap.Customers = append(snap.Customers, c)
	}
	return snap, nil
}

// schemaError maps PostgreSQL's undefined_table to ErrSchemaMissing
func schemaError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
	}
	return err
}
