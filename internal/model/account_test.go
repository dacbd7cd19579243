package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestOpenAccountRequest_Validate(t *testing.T) {
	customerID := uuid.New()

	tests := []struct {
		name    string
		request OpenAccountRequest
		wantErr error
	}{
		{
			name: "valid savings account",
			request: OpenAccountRequest{
				CustomerID:     customerID,
				AccountType:    AccountTypeSavings,
				OpeningBalance: decimal.NewFromInt(5000),
				InterestRate:   decimal.RequireFromString("0.03"),
				MinimumBalance: decimal.NewFromInt(100),
			},
			wantErr: nil,
		},
		{
			name: "valid checking account",
			request: OpenAccountRequest{
				CustomerID:     customerID,
				AccountType:    AccountTypeChecking,
				OpeningBalance: decimal.NewFromInt(1500),
				OverdraftLimit: decimal.NewFromInt(300),
				MonthlyFee:     decimal.NewFromInt(10),
			},
			wantErr: nil,
		},
		{
			name: "zero opening balance",
			request: OpenAccountRequest{
				CustomerID:  customerID,
				AccountType: AccountTypeChecking,
			},
			wantErr: nil,
		},
		{
			name: "invalid account type",
			request: OpenAccountRequest{
				CustomerID:  customerID,
				AccountType: "loan",
			},
			wantErr: ErrInvalidAccountType,
		},
		{
			name: "empty account type",
			request: OpenAccountRequest{
				CustomerID: customerID,
			},
			wantErr: ErrInvalidAccountType,
		},
		{
			name: "negative opening balance",
			request: OpenAccountRequest{
				CustomerID:     customerID,
				AccountType:    AccountTypeSavings,
				OpeningBalance: decimal.NewFromInt(-1),
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "negative interest rate",
			request: OpenAccountRequest{
				CustomerID:   customerID,
				AccountType:  AccountTypeSavings,
				InterestRate: decimal.RequireFromString("-0.01"),
			},
			wantErr: ErrInvalidTerms,
		},
		{
			name: "negative overdraft limit",
			request: OpenAccountRequest{
				CustomerID:     customerID,
				AccountType:    AccountTypeChecking,
				OverdraftLimit: decimal.NewFromInt(-300),
			},
			wantErr: ErrInvalidTerms,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateCustomerRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request CreateCustomerRequest
		wantErr error
	}{
		{
			name:    "valid customer",
			request: CreateCustomerRequest{Name: "Kari Nordmann", Age: 34, Address: "Storgata 1"},
			wantErr: nil,
		},
		{
			name:    "exactly eighteen",
			request: CreateCustomerRequest{Name: "Ola", Age: 18},
			wantErr: nil,
		},
		{
			name:    "seventeen",
			request: CreateCustomerRequest{Name: "Ola", Age: 17},
			wantErr: ErrUnderage,
		},
		{
			name:    "empty name",
			request: CreateCustomerRequest{Name: "", Age: 40},
			wantErr: ErrNameRequired,
		},
		{
			name:    "whitespace name",
			request: CreateCustomerRequest{Name: "   ", Age: 40},
			wantErr: ErrNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountSnapshot_LastBalance(t *testing.T) {
	snap := AccountSnapshot{OpeningBalance: decimal.Zero}
	if !snap.LastBalance().IsZero() {
		t.Errorf("LastBalance() = %v, want 0", snap.LastBalance())
	}

	snap.History = []TransactionRecord{
		{ID: 1, Kind: KindDeposit, Amount: decimal.NewFromInt(50), BalanceAfter: decimal.NewFromInt(50)},
		{ID: 2, Kind: KindWithdraw, Amount: decimal.NewFromInt(20), BalanceAfter: decimal.NewFromInt(30)},
	}
	if !snap.LastBalance().Equal(decimal.NewFromInt(30)) {
		t.Errorf("LastBalance() = %v, want 30", snap.LastBalance())
	}
}
