package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the type of ledger event a record describes
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdraw    Kind = "withdraw"
	KindTransferOut Kind = "transfer_out"
	KindTransferIn  Kind = "transfer_in"
)

// IsTransfer reports whether records of this kind carry a counterpart account
func (k Kind) IsTransfer() bool {
	return k == KindTransferOut || k == KindTransferIn
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindTransferOut, KindTransferIn:
		return true
	}
	return false
}

// TransactionRecord is one immutable entry in an account's history.
// Records are held by value: copies handed to callers never alias the ledger.
type TransactionRecord struct {
	ID                   int64           `json:"id"`
	Kind                 Kind            `json:"kind"`
	Amount               decimal.Decimal `json:"amount"` // Always positive
	AccountID            int64           `json:"account_id"`
	CounterpartAccountID *int64          `json:"counterpart_account_id,omitempty"`
	TransferID           *uuid.UUID      `json:"transfer_id,omitempty"`
	BalanceAfter         decimal.Decimal `json:"balance_after"`
	Timestamp            time.Time       `json:"timestamp"`
	Note                 string          `json:"note,omitempty"`
}

// NewTransactionRecord builds a deposit or withdraw record
func NewTransactionRecord(id int64, kind Kind, amount decimal.Decimal, accountID int64, balanceAfter decimal.Decimal, note string, at time.Time) (TransactionRecord, error) {
	if kind != KindDeposit && kind != KindWithdraw {
		return TransactionRecord{}, ErrInvalidRecordKind
	}
	if !amount.IsPositive() {
		return TransactionRecord{}, ErrInvalidAmount
	}

	return TransactionRecord{
		ID:           id,
		Kind:         kind,
		Amount:       amount,
		AccountID:    accountID,
		BalanceAfter: balanceAfter,
		Timestamp:    at,
		Note:         note,
	}, nil
}

// NewTransferRecord builds one leg of a transfer.
// transferID links the two legs and may be uuid.Nil when no correlation is wanted.
func NewTransferRecord(id int64, kind Kind, amount decimal.Decimal, accountID, counterpartAccountID int64, transferID uuid.UUID, balanceAfter decimal.Decimal, note string, at time.Time) (TransactionRecord, error) {
	if !kind.IsTransfer() {
		return TransactionRecord{}, ErrInvalidRecordKind
	}
	if !amount.IsPositive() {
		return TransactionRecord{}, ErrInvalidAmount
	}

	counterpart := counterpartAccountID
	rec := TransactionRecord{
		ID:                   id,
		Kind:                 kind,
		Amount:               amount,
		AccountID:            accountID,
		CounterpartAccountID: &counterpart,
		BalanceAfter:         balanceAfter,
		Timestamp:            at,
		Note:                 note,
	}
	if transferID != uuid.Nil {
		tid := transferID
		rec.TransferID = &tid
	}
	return rec, nil
}

// Clone returns a copy of r that shares no memory with it
func (r TransactionRecord) Clone() TransactionRecord {
	if r.CounterpartAccountID != nil {
		counterpart := *r.CounterpartAccountID
		r.CounterpartAccountID = &counterpart
	}
	if r.TransferID != nil {
		tid := *r.TransferID
		r.TransferID = &tid
	}
	return r
}

// Counterpart returns the counterpart account id, if any
func (r TransactionRecord) Counterpart() (int64, bool) {
	if r.CounterpartAccountID == nil {
		return 0, false
	}
	return *r.CounterpartAccountID, true
}

// SignedAmount returns the amount with the sign of its effect on the balance
func (r TransactionRecord) SignedAmount() decimal.Decimal {
	if r.Kind == KindWithdraw || r.Kind == KindTransferOut {
		return r.Amount.Neg()
	}
	return r.Amount
}

// TransferRequest is the payload for moving money between two accounts
type TransferRequest struct {
	FromCustomerID uuid.UUID       `json:"from_customer_id"`
	FromAccountID  int64           `json:"from_account_id"`
	ToCustomerID   uuid.UUID       `json:"to_customer_id"`
	ToAccountID    int64           `json:"to_account_id"`
	Amount         decimal.Decimal `json:"amount"`
}

// Validate checks the request fields that can be judged without the ledger
func (r TransferRequest) Validate() error {
	if r.FromCustomerID == uuid.Nil || r.ToCustomerID == uuid.Nil {
		return ErrCustomerNotFound
	}
	if r.FromAccountID == r.ToAccountID {
		return ErrSameAccount
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
