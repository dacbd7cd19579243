package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType represents the variant of an account
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

// OpenAccountRequest is the payload for opening an account for a customer.
// Savings accounts read InterestRate and MinimumBalance, checking accounts
// read OverdraftLimit and MonthlyFee.
type OpenAccountRequest struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	AccountType    AccountType     `json:"account_type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MinimumBalance decimal.Decimal `json:"minimum_balance"`
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
	MonthlyFee     decimal.Decimal `json:"monthly_fee"`
}

// Validate checks if the open request is valid
func (r OpenAccountRequest) Validate() error {
	if r.AccountType != AccountTypeSavings && r.AccountType != AccountTypeChecking {
		return ErrInvalidAccountType
	}
	if r.OpeningBalance.IsNegative() {
		return ErrInvalidAmount
	}
	if r.InterestRate.IsNegative() || r.MinimumBalance.IsNegative() ||
		r.OverdraftLimit.IsNegative() || r.MonthlyFee.IsNegative() {
		return ErrInvalidTerms
	}
	return nil
}

// AccountSnapshot is the fully enumerable state of one account
type AccountSnapshot struct {
	ID             int64               `json:"id"`
	Type           AccountType         `json:"type"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	Balance        decimal.Decimal     `json:"balance"`
	Frozen         bool                `json:"frozen"`
	InterestRate   decimal.Decimal     `json:"interest_rate"`
	MinimumBalance decimal.Decimal     `json:"minimum_balance"`
	OverdraftLimit decimal.Decimal     `json:"overdraft_limit"`
	MonthlyFee     decimal.Decimal     `json:"monthly_fee"`
	History        []TransactionRecord `json:"history"`
}

// CustomerSnapshot is the fully enumerable state of one customer
type CustomerSnapshot struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Age      int               `json:"age"`
	Address  string            `json:"address"`
	Accounts []AccountSnapshot `json:"accounts"`
}

// SnapshotMeta describes where and when a snapshot was written
type SnapshotMeta struct {
	Storage string    `json:"storage"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotVersion is the current snapshot layout version
const SnapshotVersion = 1

// BankSnapshot is the whole object graph: bank, customers, accounts, records
type BankSnapshot struct {
	Meta      SnapshotMeta       `json:"_meta"`
	Name      string             `json:"name"`
	Customers []CustomerSnapshot `json:"customers"`
}

// LastBalance returns the balance implied by the history, or the opening
// balance when there is none
func (a AccountSnapshot) LastBalance() decimal.Decimal {
	if len(a.History) == 0 {
		return a.OpeningBalance
	}
	return a.History[len(a.History)-1].BalanceAfter
}
