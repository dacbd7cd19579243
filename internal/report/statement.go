// Package report renders ledger records and bank reports as CSV.
package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// statementHeader is the first row of every statement
var statementHeader = []string{
	"record_id",
	"timestamp",
	"kind",
	"amount",
	"signed_amount",
	"balance_after",
	"counterpart_account_id",
	"transfer_id",
	"note",
}

// WriteStatement writes records as CSV, header first, in the order given
func WriteStatement(w io.Writer, records []model.TransactionRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(statementHeader); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(statementRow(rec)); err != nil {
			return fmt.Errorf("error writing record %d: %w", rec.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func statementRow(rec model.TransactionRecord) []string {
	counterpart := ""
	if id, ok := rec.Counterpart(); ok {
		counterpart = strconv.FormatInt(id, 10)
	}
	transferID := ""
	if rec.TransferID != nil {
		transferID = rec.TransferID.String()
	}

	return []string{
		strconv.FormatInt(rec.ID, 10),
		rec.Timestamp.Format(time.RFC3339),
		string(rec.Kind),
		rec.Amount.StringFixed(2),
		rec.SignedAmount().StringFixed(2),
		rec.BalanceAfter.StringFixed(2),
		counterpart,
		transferID,
		rec.Note,
	}
}

// StatementWriter appends each record it is handed to the CSV statement of
// its account, one file per account in dir
type StatementWriter struct {
	mu  sync.Mutex
	dir string
}

// NewStatementWriter creates a writer for dir, creating the directory if needed
func NewStatementWriter(dir string) (*StatementWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating statement directory: %w", err)
	}
	return &StatementWriter{dir: dir}, nil
}

// StatementPath returns the statement file for an account
func (s *StatementWriter) StatementPath(accountID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("account-%d.csv", accountID))
}

// HandleRecord appends rec to its account's statement, writing the header
// when the file is new
func (s *StatementWriter) HandleRecord(ctx context.Context, rec model.TransactionRecord) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.StatementPath(rec.AccountID)
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error opening statement: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing statement: %w", cerr)
		}
	}()

	writer := csv.NewWriter(file)
	if isNew {
		if err := writer.Write(statementHeader); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
	}
	if err := writer.Write(statementRow(rec)); err != nil {
		return fmt.Errorf("error writing record %d: %w", rec.ID, err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("error flushing statement: %w", err)
	}
	return nil
}
