package bank

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock() func() time.Time {
	at := time.Date(2024, 12, 13, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "got %s, want %s", got, want)
}

// assertConsistent checks that the balance matches the last record
func assertConsistent(t *testing.T, a Account) {
	t.Helper()
	h := a.History()
	want := a.OpeningBalance()
	if len(h) > 0 {
		want = h[len(h)-1].BalanceAfter
	}
	assert.True(t, a.Balance().Equal(want), "balance %s does not match history %s", a.Balance(), want)
}

func newSavings(t *testing.T, opening, rate, minimum string) *SavingsAccount {
	t.Helper()
	s, err := NewSavingsAccount(NewSequence(0), SavingsTerms{
		OpeningBalance: d(opening),
		InterestRate:   d(rate),
		MinimumBalance: d(minimum),
	}, fixedClock())
	require.NoError(t, err)
	return s
}

func newChecking(t *testing.T, opening, overdraft, fee string) *CheckingAccount {
	t.Helper()
	c, err := NewCheckingAccount(NewSequence(0), CheckingTerms{
		OpeningBalance: d(opening),
		OverdraftLimit: d(overdraft),
		MonthlyFee:     d(fee),
	}, fixedClock())
	require.NoError(t, err)
	return c
}

func TestOpeningBalanceProducesDeposit(t *testing.T) {
	s := newSavings(t, "5000", "0.03", "100")

	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, model.KindDeposit, h[0].Kind)
	assertDecimal(t, "5000", h[0].Amount)
	assert.Equal(t, s.ID(), h[0].AccountID)
	assertConsistent(t, s)

	empty := newChecking(t, "0", "300", "10")
	assert.Empty(t, empty.History())
	assertDecimal(t, "0", empty.Balance())
	assertConsistent(t, empty)
}

func TestNegativeOpeningBalanceRejected(t *testing.T) {
	_, err := NewSavingsAccount(NewSequence(0), SavingsTerms{OpeningBalance: d("-1")}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = NewCheckingAccount(NewSequence(0), CheckingTerms{OverdraftLimit: d("-5")}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidTerms)
}

func TestDeposit(t *testing.T) {
	c := newChecking(t, "100", "0", "0")

	require.NoError(t, c.Deposit(d("50.25")))
	assertDecimal(t, "150.25", c.Balance())

	h := c.History()
	require.Len(t, h, 2)
	assert.Equal(t, model.KindDeposit, h[1].Kind)
	assertDecimal(t, "150.25", h[1].BalanceAfter)
	assert.Greater(t, h[1].ID, h[0].ID)
	assertConsistent(t, c)
}

func TestInvalidAmountLeavesAccountUnchanged(t *testing.T) {
	c := newChecking(t, "100", "300", "10")
	before := c.History()

	for _, amount := range []string{"0", "-1", "-0.01"} {
		assert.ErrorIs(t, c.Deposit(d(amount)), model.ErrInvalidAmount, "deposit %s", amount)
		assert.ErrorIs(t, c.Withdraw(d(amount)), model.ErrInvalidAmount, "withdraw %s", amount)
	}

	assertDecimal(t, "100", c.Balance())
	assert.Equal(t, before, c.History())
}

func TestFrozenAccount(t *testing.T) {
	c := newChecking(t, "1000", "300", "10")
	before := c.History()

	c.Freeze()
	c.Freeze()
	assert.True(t, c.IsFrozen())

	assert.ErrorIs(t, c.Deposit(d("100")), model.ErrAccountFrozen)
	assert.ErrorIs(t, c.Withdraw(d("50")), model.ErrAccountFrozen)
	assert.ErrorIs(t, c.Withdraw(d("1000000")), model.ErrAccountFrozen)
	assertDecimal(t, "1000", c.Balance())
	assert.Equal(t, before, c.History())

	c.Unfreeze()
	c.Unfreeze()
	assert.False(t, c.IsFrozen())
	require.NoError(t, c.Deposit(d("100")))
	assertDecimal(t, "1100", c.Balance())
	assertConsistent(t, c)
}

func TestSavingsWithdraw(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    string
		wantErr error
	}{
		{"leaves minimum exactly", "4900", "100", nil},
		{"leaves more than minimum", "4850", "150", nil},
		{"breaches minimum", "4950", "5000", model.ErrInsufficientFunds},
		{"exceeds balance", "6000", "5000", model.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSavings(t, "5000", "0.03", "100")
			err := s.Withdraw(d(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, s.History(), 1)
			} else {
				require.NoError(t, err)
				assert.Len(t, s.History(), 2)
			}
			assertDecimal(t, tt.want, s.Balance())
			assertConsistent(t, s)
		})
	}
}

func TestSavingsWithdrawReasons(t *testing.T) {
	s := newSavings(t, "5000", "0.03", "100")

	err := s.Withdraw(d("4950"))
	require.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.Contains(t, err.Error(), "minimum balance")

	err = s.Withdraw(d("6000"))
	require.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.NotContains(t, err.Error(), "minimum balance")
}

func TestSavingsScenario(t *testing.T) {
	s := newSavings(t, "5000", "0.03", "100")

	assert.ErrorIs(t, s.Withdraw(d("4950")), model.ErrInsufficientFunds)
	require.NoError(t, s.Withdraw(d("4850")))
	assertDecimal(t, "150", s.Balance())
	assertConsistent(t, s)
}

func TestAccrueInterest(t *testing.T) {
	s := newSavings(t, "1000", "0.03", "100")

	interest := s.AccrueInterest()
	assertDecimal(t, "30", interest)
	assertDecimal(t, "1030", s.Balance())

	h := s.History()
	require.Len(t, h, 2)
	assert.Equal(t, model.KindDeposit, h[1].Kind)
	assert.Equal(t, "interest credit", h[1].Note)
	assertConsistent(t, s)
}

func TestAccrueInterestNothingToCredit(t *testing.T) {
	zeroRate := newSavings(t, "1000", "0", "100")
	assertDecimal(t, "0", zeroRate.AccrueInterest())
	assert.Len(t, zeroRate.History(), 1)

	empty := newSavings(t, "0", "0.05", "0")
	assertDecimal(t, "0", empty.AccrueInterest())
	assert.Empty(t, empty.History())
}

func TestAccrueInterestIgnoresFreeze(t *testing.T) {
	s := newSavings(t, "200", "0.5", "0")
	s.Freeze()

	assertDecimal(t, "100", s.AccrueInterest())
	assertDecimal(t, "300", s.Balance())
}

func TestCheckingWithdraw(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    string
		wantErr error
	}{
		{"within balance", "500", "1000", nil},
		{"into overdraft", "1700", "-200", nil},
		{"exactly at overdraft limit", "1800", "-300", nil},
		{"beyond overdraft limit", "1800.01", "1500", model.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecking(t, "1500", "300", "10")
			err := c.Withdraw(d(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assertDecimal(t, tt.want, c.Balance())
			assertConsistent(t, c)
		})
	}
}

func TestCheckingScenario(t *testing.T) {
	c := newChecking(t, "1500", "300", "10")

	require.NoError(t, c.Withdraw(d("1700")))
	assertDecimal(t, "-200", c.Balance())
	assert.True(t, c.IsInOverdraft())
	assertDecimal(t, "100", c.AvailableBalance())

	err := c.Withdraw(d("200"))
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.Contains(t, err.Error(), "overdraft")
	assertDecimal(t, "-200", c.Balance())
}

func TestApplyMonthlyFee(t *testing.T) {
	c := newChecking(t, "0", "300", "10")

	require.NoError(t, c.Withdraw(d("295")))
	assertDecimal(t, "-295", c.Balance())

	// The fee goes through even past the overdraft limit and on a frozen account.
	c.Freeze()
	assertDecimal(t, "10", c.ApplyMonthlyFee())
	assertDecimal(t, "-305", c.Balance())
	assertDecimal(t, "10", c.ApplyMonthlyFee())
	assertDecimal(t, "-315", c.Balance())

	h := c.History()
	last := h[len(h)-1]
	assert.Equal(t, model.KindWithdraw, last.Kind)
	assert.Equal(t, "monthly maintenance fee", last.Note)
	assertConsistent(t, c)
}

func TestApplyMonthlyFeeZero(t *testing.T) {
	c := newChecking(t, "100", "0", "0")

	assertDecimal(t, "0", c.ApplyMonthlyFee())
	assertDecimal(t, "100", c.Balance())
	assert.Len(t, c.History(), 1)
}

func TestZeroFloor(t *testing.T) {
	assert.NoError(t, zeroFloor(d("100"), d("100")))
	assert.ErrorIs(t, zeroFloor(d("100"), d("100.01")), model.ErrInsufficientFunds)
}

func TestHistoryIsACopy(t *testing.T) {
	c := newChecking(t, "100", "0", "0")

	h := c.History()
	h[0].Amount = d("999999")
	h[0].BalanceAfter = d("999999")
	_ = append(h, model.TransactionRecord{ID: 99})

	fresh := c.History()
	require.Len(t, fresh, 1)
	assertDecimal(t, "100", fresh[0].Amount)
	assertConsistent(t, c)
}

func TestHistoryPointerFieldsAreCopies(t *testing.T) {
	b := New("Test Bank", WithClock(fixedClock()))
	alice, err := b.RegisterCustomer(model.CreateCustomerRequest{Name: "Alice", Age: 34})
	require.NoError(t, err)
	x, err := b.OpenCheckingAccount(alice.ID(), d("100"), d("0"))
	require.NoError(t, err)
	y, err := b.OpenCheckingAccount(alice.ID(), d("0"), d("0"))
	require.NoError(t, err)
	require.NoError(t, b.Transfer(alice.ID(), x.ID(), alice.ID(), y.ID(), d("40")))

	h := x.History()
	out := h[len(h)-1]
	require.NotNil(t, out.CounterpartAccountID)
	require.NotNil(t, out.TransferID)
	transferID := *out.TransferID

	*out.CounterpartAccountID = 424242
	*out.TransferID = uuid.Nil
	snap := x.snapshot()
	*snap.History[len(snap.History)-1].CounterpartAccountID = 424242

	fresh := x.History()
	counterpart, ok := fresh[len(fresh)-1].Counterpart()
	require.True(t, ok)
	assert.Equal(t, y.ID(), counterpart)
	assert.Equal(t, transferID, *fresh[len(fresh)-1].TransferID)
}

func TestRecordTimestampsAreUTCMicroseconds(t *testing.T) {
	oslo := time.FixedZone("CET", 3600)
	at := time.Date(2024, 12, 13, 11, 0, 0, 123456789, oslo)

	c, err := NewCheckingAccount(NewSequence(0), CheckingTerms{OpeningBalance: d("10")}, func() time.Time { return at })
	require.NoError(t, err)

	got := c.History()[0].Timestamp
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2024, 12, 13, 10, 0, 0, 123456000, time.UTC), got)
	assert.True(t, got.Equal(recordTime(got)))
}

func TestAccountEquality(t *testing.T) {
	ids := NewSequence(0)
	a, err := NewCheckingAccount(ids, CheckingTerms{OpeningBalance: d("10")}, nil)
	require.NoError(t, err)
	b, err := NewCheckingAccount(ids, CheckingTerms{OpeningBalance: d("10")}, nil)
	require.NoError(t, err)

	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))

	var typedNil *SavingsAccount
	assert.False(t, a.Equal(typedNil))

	// Same id, different state: still equal.
	same, err := restoreChecking(model.AccountSnapshot{ID: a.ID(), Type: model.AccountTypeChecking}, ids, nil)
	require.NoError(t, err)
	assert.True(t, a.Equal(same))
}

func TestTransferLegsRecordCounterpart(t *testing.T) {
	ids := NewSequence(0)
	src, err := NewCheckingAccount(ids, CheckingTerms{OpeningBalance: d("100")}, nil)
	require.NoError(t, err)

	transferID := uuid.New()
	require.NoError(t, src.transferOut(d("40"), 77, transferID))
	h := src.History()
	last := h[len(h)-1]
	assert.Equal(t, model.KindTransferOut, last.Kind)
	counterpart, ok := last.Counterpart()
	assert.True(t, ok)
	assert.Equal(t, int64(77), counterpart)
	require.NotNil(t, last.TransferID)
	assert.Equal(t, transferID, *last.TransferID)

	err = src.transferOut(d("1000"), 77, uuid.New())
	assert.True(t, errors.Is(err, model.ErrInsufficientFunds))
	assertDecimal(t, "60", src.Balance())
}
