package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

const (
	// QueueName is the Redis list key for booked ledger records
	QueueName = "ledger:records"

	// DeadLetterQueue holds messages the worker could not handle
	DeadLetterQueue = "ledger:records:failed"
)

// RecordMessage is the message published to the queue, one per record
type RecordMessage struct {
	Record      model.TransactionRecord `json:"record"`
	PublishedAt time.Time               `json:"published_at"`
}

// Publisher handles publishing messages to Redis
type Publisher struct {
	client *redis.Client
	now    func() time.Time
}

// NewPublisher creates a new Publisher
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

// PublishRecords appends one message per record to the queue, in order.
// All messages go out in a single RPUSH so a consumer never sees part of a batch.
func (p *Publisher) PublishRecords(ctx context.Context, records []model.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	values, err := encodeRecords(records, p.now())
	if err != nil {
		return err
	}

	// Use RPUSH to add to the end of the list (FIFO queue)
	if err := p.client.RPush(ctx, QueueName, values...).Err(); err != nil {
		return fmt.Errorf("failed to publish to queue: %w", err)
	}

	return nil
}

// QueueLength returns the current number of messages in the queue
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, QueueName).Result()
}

func encodeRecords(records []model.TransactionRecord, at time.Time) ([]any, error) {
	values := make([]any, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(RecordMessage{Record: rec, PublishedAt: at})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", rec.ID, err)
		}
		values = append(values, data)
	}
	return values, nil
}
