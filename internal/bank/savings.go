package bank

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// DefaultMinimumBalance is the floor a savings account gets when none is given
var DefaultMinimumBalance = decimal.NewFromInt(100)

// interestPlaces is the precision interest is rounded to before crediting
const interestPlaces = 2

// SavingsTerms are the parameters a savings account is opened with
type SavingsTerms struct {
	OpeningBalance decimal.Decimal
	InterestRate   decimal.Decimal
	MinimumBalance decimal.Decimal
}

// SavingsAccount earns interest and may not be drawn below its minimum balance
type SavingsAccount struct {
	account
	interestRate   decimal.Decimal
	minimumBalance decimal.Decimal
}

// NewSavingsAccount opens a savings account, drawing its id from ids
func NewSavingsAccount(ids IDGenerator, terms SavingsTerms, now func() time.Time) (*SavingsAccount, error) {
	if terms.InterestRate.IsNegative() || terms.MinimumBalance.IsNegative() {
		return nil, model.ErrInvalidTerms
	}

	s := &SavingsAccount{
		interestRate:   terms.InterestRate,
		minimumBalance: terms.MinimumBalance,
	}
	if err := s.account.init(ids.NextID(), model.AccountTypeSavings, terms.OpeningBalance, ids, now, s.checkMinimum); err != nil {
		return nil, err
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// InterestRate returns the rate applied by AccrueInterest
func (s *SavingsAccount) InterestRate() decimal.Decimal {
	return s.interestRate
}

// MinimumBalance returns the withdrawal floor
func (s *SavingsAccount) MinimumBalance() decimal.Decimal {
	return s.minimumBalance
}

// AccrueInterest credits balance * rate and returns the amount credited.
// Interest is bank-initiated, so it is credited even while the account is frozen.
func (s *SavingsAccount) AccrueInterest() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	interest := s.balance.Mul(s.interestRate).Round(interestPlaces)
	if !interest.IsPositive() {
		return decimal.Zero
	}
	if err := s.apply(model.KindDeposit, interest, nil, uuid.Nil, "interest credit"); err != nil {
		return decimal.Zero
	}
	return interest
}

// checkMinimum keeps every withdrawal at or above the minimum balance
func (s *SavingsAccount) checkMinimum(balance, amount decimal.Decimal) error {
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s does not cover %s", model.ErrInsufficientFunds, balance, amount)
	}
	if remaining := balance.Sub(amount); remaining.LessThan(s.minimumBalance) {
		return fmt.Errorf("%w: withdrawal would leave %s, below minimum balance %s",
			model.ErrInsufficientFunds, remaining, s.minimumBalance)
	}
	return nil
}

func (s *SavingsAccount) core() *account {
	if s == nil {
		return nil
	}
	return &s.account
}

func (s *SavingsAccount) snapshot() model.AccountSnapshot {
	snap := s.snapshotBase()
	snap.InterestRate = s.interestRate
	snap.MinimumBalance = s.minimumBalance
	return snap
}

func restoreSavings(snap model.AccountSnapshot, ids IDGenerator, now func() time.Time) (*SavingsAccount, error) {
	if snap.InterestRate.IsNegative() || snap.MinimumBalance.IsNegative() {
		return nil, fmt.Errorf("%w: account %d has negative terms", model.ErrCorruptSnapshot, snap.ID)
	}

	s := &SavingsAccount{
		interestRate:   snap.InterestRate,
		minimumBalance: snap.MinimumBalance,
	}
	if err := s.account.init(snap.ID, model.AccountTypeSavings, snap.OpeningBalance, ids, now, s.checkMinimum); err != nil {
		return nil, fmt.Errorf("%w: account %d: %w", model.ErrCorruptSnapshot, snap.ID, err)
	}
	if err := s.restore(snap); err != nil {
		return nil, err
	}
	return s, nil
}
