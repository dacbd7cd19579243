package model

import "errors"

var (
	// Amount errors
	ErrInvalidAmount = errors.New("invalid amount: must be greater than zero")
	ErrInvalidTerms  = errors.New("invalid account terms: rates, limits and fees must not be negative")

	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountFrozen      = errors.New("account is frozen")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNilAccount         = errors.New("account is nil")
	ErrAccountOwned       = errors.New("account already belongs to a customer")
	ErrInvalidAccountType = errors.New("invalid account type: must be savings or checking")

	// Customer errors
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrDuplicateCustomer = errors.New("customer with this id already exists")
	ErrNilCustomer       = errors.New("customer is nil")
	ErrNameRequired      = errors.New("customer name is required")
	ErrUnderage          = errors.New("customer must be at least 18 years old")

	// Transfer errors
	ErrSameAccount        = errors.New("source and destination accounts must be different")
	ErrInvariantViolation = errors.New("ledger invariant violated")

	// Record errors
	ErrInvalidRecordKind = errors.New("invalid transaction record kind")

	// Snapshot errors
	ErrCorruptSnapshot = errors.New("snapshot is inconsistent")
)
