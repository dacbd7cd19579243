package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonkvalheim/oop-ledger/internal/bank"
	"github.com/simonkvalheim/oop-ledger/internal/model"
)

var savedAt = time.Date(2024, 12, 13, 10, 0, 0, 0, time.UTC)

func sampleBank(t *testing.T) *bank.Bank {
	t.Helper()
	b := bank.New("Test Bank", bank.WithClock(func() time.Time { return savedAt }))

	alice, err := b.RegisterCustomer(model.CreateCustomerRequest{Name: "Alice", Age: 34, Address: "Storgata 1"})
	require.NoError(t, err)
	bob, err := b.RegisterCustomer(model.CreateCustomerRequest{Name: "Bob", Age: 51})
	require.NoError(t, err)

	x, err := b.OpenCheckingAccount(alice.ID(), decimal.NewFromInt(1000), decimal.NewFromInt(300))
	require.NoError(t, err)
	_, err = b.OpenSavingsAccount(alice.ID(), decimal.NewFromInt(5000), decimal.RequireFromString("0.03"))
	require.NoError(t, err)
	y, err := b.OpenCheckingAccount(bob.ID(), decimal.NewFromInt(200), decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, b.Transfer(alice.ID(), x.ID(), bob.ID(), y.ID(), decimal.RequireFromString("123.45")))
	b.AccrueInterestForAllSavings()
	b.ApplyFeesForAllChecking()
	y.Freeze()
	return b
}

func TestJSONStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewJSONStore(filepath.Join(t.TempDir(), "ledger.json"))
	store.now = func() time.Time { return savedAt }

	orig := sampleBank(t).Snapshot()
	require.NoError(t, store.Save(ctx, orig))

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, StorageJSON, loaded.Meta.Storage)
	assert.Equal(t, model.SnapshotVersion, loaded.Meta.Version)

	orig.Meta.Storage = StorageJSON
	want, err := json.Marshal(orig)
	require.NoError(t, err)
	got, err := json.Marshal(loaded)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	restored, err := bank.Restore(loaded)
	require.NoError(t, err)
	assert.Len(t, restored.Customers(), 2)
	assert.True(t, restored.Report().TotalBalance.Equal(sampleBank(t).Report().TotalBalance))
}

func TestJSONStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewJSONStore(filepath.Join(t.TempDir(), "nested", "ledger.json"))

	require.NoError(t, store.Save(ctx, model.BankSnapshot{Name: "First"}))
	require.NoError(t, store.Save(ctx, model.BankSnapshot{Name: "Second"}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Second", loaded.Name)
}

func TestJSONStoreMissingFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewJSONStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestJSONStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewJSONStore(filepath.Join(t.TempDir(), "ledger.json"))
	assert.ErrorIs(t, store.Save(ctx, model.BankSnapshot{}), context.Canceled)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
