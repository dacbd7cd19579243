// Package bank holds the account hierarchy, customers and the Bank that
// coordinates movements between accounts. Nothing in this package does I/O.
package bank

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// Account is the capability shared by every account variant.
// The unexported methods keep the set of implementations inside this package.
type Account interface {
	ID() int64
	Type() model.AccountType
	Balance() decimal.Decimal
	OpeningBalance() decimal.Decimal
	IsFrozen() bool
	Deposit(amount decimal.Decimal) error
	Withdraw(amount decimal.Decimal) error
	Freeze()
	Unfreeze()
	History() []model.TransactionRecord
	Equal(other Account) bool

	core() *account
	snapshot() model.AccountSnapshot
}

// InterestBearing accounts credit interest when asked to
type InterestBearing interface {
	Account
	AccrueInterest() decimal.Decimal
}

// FeeBearing accounts are charged a periodic fee
type FeeBearing interface {
	Account
	ApplyMonthlyFee() decimal.Decimal
}

// floorCheck decides whether balance can stand to lose amount.
// It returns a wrapped model.ErrInsufficientFunds when it cannot.
type floorCheck func(balance, amount decimal.Decimal) error

// zeroFloor is the policy of an account with no variant-specific floor
func zeroFloor(balance, amount decimal.Decimal) error {
	if balance.Sub(amount).IsNegative() {
		return fmt.Errorf("%w: balance %s does not cover %s", model.ErrInsufficientFunds, balance, amount)
	}
	return nil
}

// account is the state and behaviour every variant shares.
// Variants plug in their floor policy; everything else lives here.
type account struct {
	mu      sync.Mutex
	id      int64
	typ     model.AccountType
	opening decimal.Decimal
	balance decimal.Decimal
	frozen  bool
	history []model.TransactionRecord
	owner   *Customer

	ids   IDGenerator
	now   func() time.Time
	floor floorCheck
}

// init prepares a zero core in place. Accounts hold a mutex, so they are
// never built by value.
func (a *account) init(id int64, typ model.AccountType, opening decimal.Decimal, ids IDGenerator, now func() time.Time, floor floorCheck) error {
	if opening.IsNegative() {
		return model.ErrInvalidAmount
	}
	if now == nil {
		now = time.Now
	}
	if floor == nil {
		floor = zeroFloor
	}
	a.id = id
	a.typ = typ
	a.opening = opening
	a.balance = decimal.Zero
	a.ids = ids
	a.now = now
	a.floor = floor
	return nil
}

// open books the opening balance as the first deposit
func (a *account) open() error {
	if !a.opening.IsPositive() {
		return nil
	}
	return a.apply(model.KindDeposit, a.opening, nil, uuid.Nil, "opening deposit")
}

// ID returns the account id
func (a *account) ID() int64 {
	return a.id
}

// Type returns the account variant
func (a *account) Type() model.AccountType {
	return a.typ
}

// Balance returns the current balance
func (a *account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// OpeningBalance returns the balance the account was opened with
func (a *account) OpeningBalance() decimal.Decimal {
	return a.opening
}

// IsFrozen reports whether movements are currently blocked
func (a *account) IsFrozen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frozen
}

// Freeze blocks deposits, withdrawals and transfers. Idempotent.
func (a *account) Freeze() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = true
}

// Unfreeze lifts a freeze. Idempotent.
func (a *account) Unfreeze() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = false
}

// Deposit credits amount to the account
func (a *account) Deposit(amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkCredit(amount); err != nil {
		return err
	}
	return a.apply(model.KindDeposit, amount, nil, uuid.Nil, "deposit")
}

// Withdraw debits amount if the variant's floor allows it
func (a *account) Withdraw(amount decimal.Decimal) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkDebit(amount); err != nil {
		return err
	}
	return a.apply(model.KindWithdraw, amount, nil, uuid.Nil, "withdrawal")
}

// History returns a copy of the ledger in chronological order
func (a *account) History() []model.TransactionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	return cloneHistory(a.history)
}

// Equal compares accounts by id only
func (a *account) Equal(other Account) bool {
	if other == nil || other.core() == nil {
		return false
	}
	return a.id == other.ID()
}

// checkCredit validates an incoming movement. Caller holds a.mu.
func (a *account) checkCredit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return model.ErrInvalidAmount
	}
	if a.frozen {
		return fmt.Errorf("%w: account %d", model.ErrAccountFrozen, a.id)
	}
	return nil
}

// checkDebit validates an outgoing movement. Caller holds a.mu.
func (a *account) checkDebit(amount decimal.Decimal) error {
	if err := a.checkCredit(amount); err != nil {
		return err
	}
	return a.floor(a.balance, amount)
}

// transferOut is the debit leg of Bank.Transfer. Caller holds a.mu.
func (a *account) transferOut(amount decimal.Decimal, counterpartID int64, transferID uuid.UUID) error {
	if err := a.checkDebit(amount); err != nil {
		return err
	}
	return a.apply(model.KindTransferOut, amount, &counterpartID, transferID, fmt.Sprintf("transfer to account %d", counterpartID))
}

// transferIn is the credit leg of Bank.Transfer. Caller holds a.mu.
func (a *account) transferIn(amount decimal.Decimal, counterpartID int64, transferID uuid.UUID) error {
	if err := a.checkCredit(amount); err != nil {
		return err
	}
	return a.apply(model.KindTransferIn, amount, &counterpartID, transferID, fmt.Sprintf("transfer from account %d", counterpartID))
}

// apply mutates the balance and appends the matching record.
// The record is built first so a rejected record leaves the account untouched.
func (a *account) apply(kind model.Kind, amount decimal.Decimal, counterpartID *int64, transferID uuid.UUID, note string) error {
	next := a.balance.Add(amount)
	if kind == model.KindWithdraw || kind == model.KindTransferOut {
		next = a.balance.Sub(amount)
	}

	var (
		rec model.TransactionRecord
		err error
		at  = recordTime(a.now())
	)
	if counterpartID != nil {
		rec, err = model.NewTransferRecord(a.ids.NextID(), kind, amount, a.id, *counterpartID, transferID, next, note, at)
	} else {
		rec, err = model.NewTransactionRecord(a.ids.NextID(), kind, amount, a.id, next, note, at)
	}
	if err != nil {
		return err
	}

	a.balance = next
	a.history = append(a.history, rec)
	return nil
}

// recordTime normalizes a record timestamp to UTC microseconds, the
// precision of a PostgreSQL timestamptz column
func recordTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// lastRecordID returns the highest record id in the history, 0 if empty
func (a *account) lastRecordID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.history) == 0 {
		return 0
	}
	return a.history[len(a.history)-1].ID
}

func (a *account) snapshotBase() model.AccountSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := cloneHistory(a.history)
	return model.AccountSnapshot{
		ID:             a.id,
		Type:           a.typ,
		OpeningBalance: a.opening,
		Balance:        a.balance,
		Frozen:         a.frozen,
		History:        history,
	}
}

// restore loads persisted state into a freshly built core
func (a *account) restore(snap model.AccountSnapshot) error {
	if len(snap.History) == 0 && !snap.Balance.IsZero() {
		return fmt.Errorf("%w: account %d has balance %s but no history",
			model.ErrCorruptSnapshot, snap.ID, snap.Balance)
	}
	if !snap.LastBalance().Equal(snap.Balance) {
		return fmt.Errorf("%w: account %d balance %s does not match its history (%s)",
			model.ErrCorruptSnapshot, snap.ID, snap.Balance, snap.LastBalance())
	}

	var prev int64
	for _, rec := range snap.History {
		if rec.AccountID != snap.ID {
			return fmt.Errorf("%w: record %d belongs to account %d, found under account %d",
				model.ErrCorruptSnapshot, rec.ID, rec.AccountID, snap.ID)
		}
		if !rec.Kind.Valid() || !rec.Amount.IsPositive() {
			return fmt.Errorf("%w: record %d is malformed", model.ErrCorruptSnapshot, rec.ID)
		}
		if rec.ID <= prev {
			return fmt.Errorf("%w: account %d history is out of order at record %d", model.ErrCorruptSnapshot, snap.ID, rec.ID)
		}
		prev = rec.ID
	}

	a.id = snap.ID
	a.opening = snap.OpeningBalance
	a.balance = snap.Balance
	a.frozen = snap.Frozen
	a.history = cloneHistory(snap.History)
	return nil
}

func cloneHistory(history []model.TransactionRecord) []model.TransactionRecord {
	out := make([]model.TransactionRecord, len(history))
	for i, rec := range history {
		out[i] = rec.Clone()
	}
	return out
}
