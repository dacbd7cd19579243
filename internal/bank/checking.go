package bank

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// DefaultMonthlyFee is the maintenance fee a checking account gets when none is given
var DefaultMonthlyFee = decimal.NewFromInt(10)

// CheckingTerms are the parameters a checking account is opened with
type CheckingTerms struct {
	OpeningBalance decimal.Decimal
	OverdraftLimit decimal.Decimal
	MonthlyFee     decimal.Decimal
}

// CheckingAccount may go negative down to its overdraft limit and pays a monthly fee
type CheckingAccount struct {
	account
	overdraftLimit decimal.Decimal
	monthlyFee     decimal.Decimal
}

// NewCheckingAccount opens a checking account, drawing its id from ids
func NewCheckingAccount(ids IDGenerator, terms CheckingTerms, now func() time.Time) (*CheckingAccount, error) {
	if terms.OverdraftLimit.IsNegative() || terms.MonthlyFee.IsNegative() {
		return nil, model.ErrInvalidTerms
	}

	c := &CheckingAccount{
		overdraftLimit: terms.OverdraftLimit,
		monthlyFee:     terms.MonthlyFee,
	}
	if err := c.account.init(ids.NextID(), model.AccountTypeChecking, terms.OpeningBalance, ids, now, c.checkOverdraft); err != nil {
		return nil, err
	}
	if err := c.open(); err != nil {
		return nil, err
	}
	return c, nil
}

// OverdraftLimit returns how far below zero withdrawals may take the balance
func (c *CheckingAccount) OverdraftLimit() decimal.Decimal {
	return c.overdraftLimit
}

// MonthlyFee returns the fee charged by ApplyMonthlyFee
func (c *CheckingAccount) MonthlyFee() decimal.Decimal {
	return c.monthlyFee
}

// IsInOverdraft reports whether the balance is below zero
func (c *CheckingAccount) IsInOverdraft() bool {
	return c.Balance().IsNegative()
}

// AvailableBalance is the balance plus the unused overdraft allowance
func (c *CheckingAccount) AvailableBalance() decimal.Decimal {
	return c.Balance().Add(c.overdraftLimit)
}

// ApplyMonthlyFee charges the maintenance fee and returns the amount charged.
// The fee always applies: it ignores the freeze and may push the balance
// past the overdraft limit, unlike an ordinary withdrawal.
func (c *CheckingAccount) ApplyMonthlyFee() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.monthlyFee.IsPositive() {
		return decimal.Zero
	}
	if err := c.apply(model.KindWithdraw, c.monthlyFee, nil, uuid.Nil, "monthly maintenance fee"); err != nil {
		return decimal.Zero
	}
	return c.monthlyFee
}

// checkOverdraft keeps every withdrawal at or above -overdraftLimit
func (c *CheckingAccount) checkOverdraft(balance, amount decimal.Decimal) error {
	floor := c.overdraftLimit.Neg()
	if remaining := balance.Sub(amount); remaining.LessThan(floor) {
		return fmt.Errorf("%w: withdrawal would leave %s, beyond overdraft limit %s",
			model.ErrInsufficientFunds, remaining, c.overdraftLimit)
	}
	return nil
}

func (c *CheckingAccount) core() *account {
	if c == nil {
		return nil
	}
	return &c.account
}

func (c *CheckingAccount) snapshot() model.AccountSnapshot {
	snap := c.snapshotBase()
	snap.OverdraftLimit = c.overdraftLimit
	snap.MonthlyFee = c.monthlyFee
	return snap
}

func restoreChecking(snap model.AccountSnapshot, ids IDGenerator, now func() time.Time) (*CheckingAccount, error) {
	if snap.OverdraftLimit.IsNegative() || snap.MonthlyFee.IsNegative() {
		return nil, fmt.Errorf("%w: account %d has negative terms", model.ErrCorruptSnapshot, snap.ID)
	}

	c := &CheckingAccount{
		overdraftLimit: snap.OverdraftLimit,
		monthlyFee:     snap.MonthlyFee,
	}
	if err := c.account.init(snap.ID, model.AccountTypeChecking, snap.OpeningBalance, ids, now, c.checkOverdraft); err != nil {
		return nil, fmt.Errorf("%w: account %d: %w", model.ErrCorruptSnapshot, snap.ID, err)
	}
	if err := c.restore(snap); err != nil {
		return nil, err
	}
	return c, nil
}
