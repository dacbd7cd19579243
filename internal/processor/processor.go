package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/oop-ledger/internal/bank"
	"github.com/simonkvalheim/oop-ledger/internal/model"
	"github.com/simonkvalheim/oop-ledger/internal/storage"
)

// Store persists whole-bank snapshots
type Store interface {
	Load(ctx context.Context) (model.BankSnapshot, error)
	Save(ctx context.Context, snap model.BankSnapshot) error
}

// RecordPublisher announces records booked by an operation
type RecordPublisher interface {
	PublishRecords(ctx context.Context, records []model.TransactionRecord) error
}

// Processor runs bank operations as units of work: run the operation, save
// the snapshot, publish what it booked
type Processor struct {
	mu        sync.Mutex
	bank      *bank.Bank
	store     Store
	publisher RecordPublisher
}

// New creates a Processor around an existing bank. publisher may be nil.
func New(b *bank.Bank, store Store, publisher RecordPublisher) *Processor {
	return &Processor{bank: b, store: store, publisher: publisher}
}

// Open loads the bank from store, or starts an empty one named name when
// nothing has been saved yet
func Open(ctx context.Context, store Store, publisher RecordPublisher, name string, opts ...bank.Option) (*Processor, error) {
	snap, err := store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNoSnapshot):
		log.Printf("No snapshot found, starting bank %q", name)
		return New(bank.New(name, opts...), store, publisher), nil
	case err != nil:
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	b, err := bank.Restore(snap, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore bank: %w", err)
	}
	log.Printf("Restored bank %q (%d customers, saved %s)", b.Name(), len(b.Customers()), snap.Meta.SavedAt.Format("2006-01-02 15:04:05"))
	return New(b, store, publisher), nil
}

// Bank returns the bank for read-only use
func (p *Processor) Bank() *bank.Bank {
	return p.bank
}

// ProcessResult contains the result of executing an operation
type ProcessResult struct {
	Operation string
	Records   []model.TransactionRecord
	Published bool
}

// Execute runs op against the bank. When op fails nothing is saved or
// published. When it succeeds the snapshot is saved and the records op
// booked are published; a publish failure is logged, since the saved
// snapshot already holds the records.
func (p *Processor) Execute(ctx context.Context, name string, op func(b *bank.Bank) error) (*ProcessResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mark := p.bank.LastRecordID()
	if err := op(p.bank); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", name, err)
	}

	if err := p.store.Save(ctx, p.bank.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to save snapshot after %s: %w", name, err)
	}

	result := &ProcessResult{
		Operation: name,
		Records:   p.bank.RecordsAfter(mark),
	}
	if p.publisher == nil || len(result.Records) == 0 {
		return result, nil
	}

	if err := p.publisher.PublishRecords(ctx, result.Records); err != nil {
		log.Printf("Failed to publish %d records for %s: %v", len(result.Records), name, err)
		return result, nil
	}
	result.Published = true
	return result, nil
}

// MonthEndResult contains the totals of a month-end run
type MonthEndResult struct {
	*ProcessResult
	InterestCredited decimal.Decimal
	FeesCharged      decimal.Decimal
}

// MonthEnd credits interest on every savings account, then charges every
// checking account its monthly fee, as one unit of work
func (p *Processor) MonthEnd(ctx context.Context) (*MonthEndResult, error) {
	var interest, fees decimal.Decimal
	result, err := p.Execute(ctx, "run month-end", func(b *bank.Bank) error {
		interest = b.AccrueInterestForAllSavings()
		fees = b.ApplyFeesForAllChecking()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Month-end: interest credited %s, fees charged %s, %d records", interest.StringFixed(2), fees.StringFixed(2), len(result.Records))
	return &MonthEndResult{
		ProcessResult:    result,
		InterestCredited: interest,
		FeesCharged:      fees,
	}, nil
}
