package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

var at = time.Date(2024, 12, 13, 10, 0, 0, 0, time.UTC)

func sampleRecords(t *testing.T) []model.TransactionRecord {
	t.Helper()
	dep, err := model.NewTransactionRecord(2, model.KindDeposit, decimal.NewFromInt(1000), 1, decimal.NewFromInt(1000), "opening deposit", at)
	require.NoError(t, err)
	out, err := model.NewTransferRecord(3, model.KindTransferOut, decimal.RequireFromString("250.5"), 1, 5, uuid.New(), decimal.RequireFromString("749.5"), "transfer to account 5", at)
	require.NoError(t, err)
	return []model.TransactionRecord{dep, out}
}

type recordingHandler struct {
	got []model.TransactionRecord
	err error
}

func (h *recordingHandler) HandleRecord(_ context.Context, rec model.TransactionRecord) error {
	if h.err != nil {
		return h.err
	}
	h.got = append(h.got, rec)
	return nil
}

func TestEncodedRecordsReachHandler(t *testing.T) {
	records := sampleRecords(t)
	values, err := encodeRecords(records, at)
	require.NoError(t, err)
	require.Len(t, values, 2)

	h := &recordingHandler{}
	w := NewWorker(nil, h)
	for _, v := range values {
		require.NoError(t, w.processMessage(context.Background(), string(v.([]byte))))
	}

	require.Len(t, h.got, 2)
	for i := range records {
		assert.Equal(t, records[i].ID, h.got[i].ID)
		assert.Equal(t, records[i].Kind, h.got[i].Kind)
		assert.True(t, records[i].Amount.Equal(h.got[i].Amount))
		assert.True(t, records[i].BalanceAfter.Equal(h.got[i].BalanceAfter))
		assert.Equal(t, records[i].TransferID, h.got[i].TransferID)
		assert.True(t, records[i].Timestamp.Equal(h.got[i].Timestamp))
	}
}

func TestProcessMessageRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", "{", nil},
		{"unknown kind", `{"record":{"id":1,"kind":"refund","amount":"1"}}`, model.ErrInvalidRecordKind},
		{"empty message", `{}`, model.ErrInvalidRecordKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandler{}
			err := NewWorker(nil, h).processMessage(context.Background(), tt.data)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Empty(t, h.got)
		})
	}
}

func TestProcessMessageHandlerError(t *testing.T) {
	values, err := encodeRecords(sampleRecords(t)[:1], at)
	require.NoError(t, err)

	boom := errors.New("disk full")
	w := NewWorker(nil, &recordingHandler{err: boom})

	err = w.processMessage(context.Background(), string(values[0].([]byte)))
	assert.ErrorIs(t, err, boom)
}

func TestRecordHandlerFunc(t *testing.T) {
	var seen int64
	h := RecordHandlerFunc(func(_ context.Context, rec model.TransactionRecord) error {
		seen = rec.ID
		return nil
	})

	require.NoError(t, h.HandleRecord(context.Background(), sampleRecords(t)[1]))
	assert.Equal(t, int64(3), seen)
}

func TestPublishNothing(t *testing.T) {
	p := NewPublisher(nil)
	assert.NoError(t, p.PublishRecords(context.Background(), nil))
}
