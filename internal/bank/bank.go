package bank

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// Bank owns the customers and is the only place money moves between two
// accounts. All Bank operations are serialized on one mutex.
type Bank struct {
	mu        sync.Mutex
	name      string
	customers []*Customer

	ids           IDGenerator
	now           func() time.Time
	newTransferID func() uuid.UUID
}

// Option configures a Bank
type Option func(*Bank)

// WithIDGenerator sets the source of account and record ids
func WithIDGenerator(ids IDGenerator) Option {
	return func(b *Bank) { b.ids = ids }
}

// WithClock sets the clock used to timestamp records
func WithClock(now func() time.Time) Option {
	return func(b *Bank) { b.now = now }
}

// WithTransferIDs sets the source of the ids linking the two legs of a transfer
func WithTransferIDs(fn func() uuid.UUID) Option {
	return func(b *Bank) { b.newTransferID = fn }
}

// New creates an empty bank
func New(name string, opts ...Option) *Bank {
	b := &Bank{
		name:          name,
		ids:           NewSequence(0),
		now:           time.Now,
		newTransferID: uuid.New,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the bank's name
func (b *Bank) Name() string {
	return b.name
}

// AddCustomer adds a customer. Customer ids are unique within the bank and
// no account may be owned by two customers.
func (b *Bank) AddCustomer(c *Customer) error {
	if c == nil {
		return model.ErrNilCustomer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.findCustomer(c.ID()); err == nil {
		return fmt.Errorf("%w: %s", model.ErrDuplicateCustomer, c.ID())
	}
	for _, a := range c.Accounts() {
		if _, _, err := b.findAccount(a.ID()); err == nil {
			return fmt.Errorf("%w: account %d", model.ErrAccountOwned, a.ID())
		}
	}

	b.customers = append(b.customers, c)
	return nil
}

// RegisterCustomer validates the request, creates the customer and adds it
func (b *Bank) RegisterCustomer(req model.CreateCustomerRequest) (*Customer, error) {
	c, err := NewCustomer(req)
	if err != nil {
		return nil, err
	}
	if err := b.AddCustomer(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveCustomer removes a customer and, with it, the customer's accounts.
// It reports whether the customer was found.
func (b *Bank) RemoveCustomer(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, c := range b.customers {
		if c.ID() == id {
			b.customers = append(b.customers[:i:i], b.customers[i+1:]...)
			return true
		}
	}
	return false
}

// FindCustomer looks up a customer by id
func (b *Bank) FindCustomer(id uuid.UUID) (*Customer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findCustomer(id)
}

// Customers returns the customers in the order they were added
func (b *Bank) Customers() []*Customer {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*Customer, len(b.customers))
	copy(out, b.customers)
	return out
}

// FindAccount looks up an account across all customers and returns it with its owner
func (b *Bank) FindAccount(accountID int64) (*Customer, Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.findAccount(accountID)
}

// OpenSavingsAccount opens a savings account with the default minimum balance
func (b *Bank) OpenSavingsAccount(customerID uuid.UUID, openingBalance, rate decimal.Decimal) (*SavingsAccount, error) {
	return b.OpenSavings(customerID, SavingsTerms{
		OpeningBalance: openingBalance,
		InterestRate:   rate,
		MinimumBalance: DefaultMinimumBalance,
	})
}

// OpenSavings opens a savings account with explicit terms
func (b *Bank) OpenSavings(customerID uuid.UUID, terms SavingsTerms) (*SavingsAccount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.findCustomer(customerID)
	if err != nil {
		return nil, err
	}
	s, err := NewSavingsAccount(b.ids, terms, b.now)
	if err != nil {
		return nil, err
	}
	if err := c.AddAccount(s); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenCheckingAccount opens a checking account with the default monthly fee
func (b *Bank) OpenCheckingAccount(customerID uuid.UUID, openingBalance, overdraftLimit decimal.Decimal) (*CheckingAccount, error) {
	return b.OpenChecking(customerID, CheckingTerms{
		OpeningBalance: openingBalance,
		OverdraftLimit: overdraftLimit,
		MonthlyFee:     DefaultMonthlyFee,
	})
}

// OpenChecking opens a checking account with explicit terms
func (b *Bank) OpenChecking(customerID uuid.UUID, terms CheckingTerms) (*CheckingAccount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.findCustomer(customerID)
	if err != nil {
		return nil, err
	}
	ca, err := NewCheckingAccount(b.ids, terms, b.now)
	if err != nil {
		return nil, err
	}
	if err := c.AddAccount(ca); err != nil {
		return nil, err
	}
	return ca, nil
}

// OpenAccount opens either variant from a request payload
func (b *Bank) OpenAccount(req model.OpenAccountRequest) (Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.AccountType {
	case model.AccountTypeSavings:
		return b.OpenSavings(req.CustomerID, SavingsTerms{
			OpeningBalance: req.OpeningBalance,
			InterestRate:   req.InterestRate,
			MinimumBalance: req.MinimumBalance,
		})
	default:
		return b.OpenChecking(req.CustomerID, CheckingTerms{
			OpeningBalance: req.OpeningBalance,
			OverdraftLimit: req.OverdraftLimit,
			MonthlyFee:     req.MonthlyFee,
		})
	}
}

// CloseAccount removes an account from its owner
func (b *Bank) CloseAccount(customerID uuid.UUID, accountID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.findCustomer(customerID)
	if err != nil {
		return err
	}
	if !c.removeAccountByID(accountID) {
		return fmt.Errorf("%w: %d", model.ErrAccountNotFound, accountID)
	}
	return nil
}

// Deposit credits an account owned by the given customer
func (b *Bank) Deposit(customerID uuid.UUID, accountID int64, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.resolve(customerID, accountID)
	if err != nil {
		return err
	}
	return a.Deposit(amount)
}

// Withdraw debits an account owned by the given customer
func (b *Bank) Withdraw(customerID uuid.UUID, accountID int64, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.resolve(customerID, accountID)
	if err != nil {
		return err
	}
	return a.Withdraw(amount)
}

// Freeze blocks movements on an account owned by the given customer
func (b *Bank) Freeze(customerID uuid.UUID, accountID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.resolve(customerID, accountID)
	if err != nil {
		return err
	}
	a.Freeze()
	return nil
}

// Unfreeze lifts a freeze on an account owned by the given customer
func (b *Bank) Unfreeze(customerID uuid.UUID, accountID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, err := b.resolve(customerID, accountID)
	if err != nil {
		return err
	}
	a.Unfreeze()
	return nil
}

// Transfer moves amount from one account to another, possibly across customers.
//
// Every check runs before either account is touched: both lookups, the
// amount, the freeze on both sides and the source's floor policy. Both
// account locks are held until the second leg is booked. A leg failing after
// that is reported as model.ErrInvariantViolation; nothing is rolled back.
func (b *Bank) Transfer(fromCustomerID uuid.UUID, fromAccountID int64, toCustomerID uuid.UUID, toAccountID int64, amount decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	from, err := b.resolve(fromCustomerID, fromAccountID)
	if err != nil {
		return err
	}
	to, err := b.resolve(toCustomerID, toAccountID)
	if err != nil {
		return err
	}
	if from.ID() == to.ID() {
		return model.ErrSameAccount
	}
	if !amount.IsPositive() {
		return model.ErrInvalidAmount
	}

	src, dst := from.core(), to.core()
	unlock := lockPair(src, dst)
	defer unlock()

	if src.frozen {
		return fmt.Errorf("%w: account %d", model.ErrAccountFrozen, src.id)
	}
	if dst.frozen {
		return fmt.Errorf("%w: account %d", model.ErrAccountFrozen, dst.id)
	}
	if err := src.floor(src.balance, amount); err != nil {
		return err
	}

	transferID := b.newTransferID()
	if err := src.transferOut(amount, dst.id, transferID); err != nil {
		return fmt.Errorf("%w: debit leg on account %d: %w", model.ErrInvariantViolation, src.id, err)
	}
	if err := dst.transferIn(amount, src.id, transferID); err != nil {
		return fmt.Errorf("%w: credit leg on account %d after debit on %d: %w", model.ErrInvariantViolation, dst.id, src.id, err)
	}
	return nil
}

// ExecuteTransfer runs Transfer from a request payload
func (b *Bank) ExecuteTransfer(req model.TransferRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return b.Transfer(req.FromCustomerID, req.FromAccountID, req.ToCustomerID, req.ToAccountID, req.Amount)
}

// AccrueInterestForAllSavings credits interest on every interest-bearing
// account and returns the total credited
func (b *Bank) AccrueInterestForAllSavings() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := decimal.Zero
	for _, a := range b.allAccounts() {
		if ib, ok := a.(InterestBearing); ok {
			total = total.Add(ib.AccrueInterest())
		}
	}
	return total
}

// ApplyFeesForAllChecking charges every fee-bearing account and returns the
// total charged
func (b *Bank) ApplyFeesForAllChecking() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := decimal.Zero
	for _, a := range b.allAccounts() {
		if fb, ok := a.(FeeBearing); ok {
			total = total.Add(fb.ApplyMonthlyFee())
		}
	}
	return total
}

// CustomerReport is one customer's line in a Report
type CustomerReport struct {
	CustomerID   uuid.UUID
	Name         string
	Accounts     int
	TotalBalance decimal.Decimal
}

// Report aggregates balances across the bank
type Report struct {
	BankName          string
	Customers         []CustomerReport
	TotalBalance      decimal.Decimal
	SavingsAccounts   int
	CheckingAccounts  int
	FrozenAccounts    []int64
	OverdrawnAccounts []int64
}

// Report builds the aggregate view of every customer and account
func (b *Bank) Report() Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := Report{
		BankName:     b.name,
		TotalBalance: decimal.Zero,
	}
	for _, c := range b.customers {
		accounts := c.Accounts()
		line := CustomerReport{
			CustomerID:   c.ID(),
			Name:         c.Name(),
			Accounts:     len(accounts),
			TotalBalance: c.TotalBalance(),
		}
		r.Customers = append(r.Customers, line)
		r.TotalBalance = r.TotalBalance.Add(line.TotalBalance)

		for _, a := range accounts {
			if _, ok := a.(InterestBearing); ok {
				r.SavingsAccounts++
			}
			if _, ok := a.(FeeBearing); ok {
				r.CheckingAccounts++
			}
			if a.IsFrozen() {
				r.FrozenAccounts = append(r.FrozenAccounts, a.ID())
			}
			if od, ok := a.(interface{ IsInOverdraft() bool }); ok && od.IsInOverdraft() {
				r.OverdrawnAccounts = append(r.OverdrawnAccounts, a.ID())
			}
		}
	}
	return r
}

// LastRecordID returns the highest record id booked so far, 0 if none
func (b *Bank) LastRecordID() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var last int64
	for _, a := range b.allAccounts() {
		last = max(last, a.core().lastRecordID())
	}
	return last
}

// RecordsAfter returns every record with an id above mark, oldest first.
// Callers take LastRecordID before an operation to collect what it booked.
func (b *Bank) RecordsAfter(mark int64) []model.TransactionRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []model.TransactionRecord
	for _, a := range b.allAccounts() {
		for _, rec := range a.History() {
			if rec.ID > mark {
				out = append(out, rec)
			}
		}
	}
	slices.SortFunc(out, func(x, y model.TransactionRecord) int {
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

// Snapshot captures the whole object graph for persistence
func (b *Bank) Snapshot() model.BankSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := model.BankSnapshot{
		Meta: model.SnapshotMeta{
			Version: model.SnapshotVersion,
			SavedAt: b.now(),
		},
		Name:      b.name,
		Customers: make([]model.CustomerSnapshot, 0, len(b.customers)),
	}
	for _, c := range b.customers {
		snap.Customers = append(snap.Customers, c.snapshot())
	}
	return snap
}

func (b *Bank) findCustomer(id uuid.UUID) (*Customer, error) {
	for _, c := range b.customers {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", model.ErrCustomerNotFound, id)
}

func (b *Bank) findAccount(accountID int64) (*Customer, Account, error) {
	for _, c := range b.customers {
		if a, err := c.FindAccount(accountID); err == nil {
			return c, a, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %d", model.ErrAccountNotFound, accountID)
}

// resolve finds the customer, then the account among that customer's accounts
func (b *Bank) resolve(customerID uuid.UUID, accountID int64) (Account, error) {
	c, err := b.findCustomer(customerID)
	if err != nil {
		return nil, err
	}
	a, err := c.FindAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", err, accountID)
	}
	return a, nil
}

func (b *Bank) allAccounts() []Account {
	var out []Account
	for _, c := range b.customers {
		out = append(out, c.Accounts()...)
	}
	return out
}

// lockPair locks two distinct accounts in id order and returns the unlock
func lockPair(x, y *account) func() {
	if y.id < x.id {
		x, y = y, x
	}
	x.mu.Lock()
	y.mu.Lock()
	return func() {
		y.mu.Unlock()
		x.mu.Unlock()
	}
}
