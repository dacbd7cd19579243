package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// RecordHandler consumes ledger records taken off the queue
type RecordHandler interface {
	HandleRecord(ctx context.Context, rec model.TransactionRecord) error
}

// RecordHandlerFunc adapts a function to RecordHandler
type RecordHandlerFunc func(ctx context.Context, rec model.TransactionRecord) error

// HandleRecord calls f
func (f RecordHandlerFunc) HandleRecord(ctx context.Context, rec model.TransactionRecord) error {
	return f(ctx, rec)
}

// Worker consumes messages from the queue and hands each record to a handler
type Worker struct {
	client  *redis.Client
	handler RecordHandler
	stopCh  chan struct{}
}

// NewWorker creates a new Worker
func NewWorker(client *redis.Client, handler RecordHandler) *Worker {
	return &Worker{
		client:  client,
		handler: handler,
		stopCh:  make(chan struct{}),
	}
}

// Start begins consuming messages from the queue
// This runs in a loop until Stop() is called
func (w *Worker) Start(ctx context.Context) {
	log.Println("Worker started, listening for ledger records...")

	for {
		select {
		case <-ctx.Done():
			log.Println("Worker stopping due to context cancellation")
			return
		case <-w.stopCh:
			log.Println("Worker stopping due to stop signal")
			return
		default:
			// Wait up to 5 seconds for a message, then loop to check for stop signal
			result, err := w.client.BLPop(ctx, 5*time.Second, QueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error reading from queue: %v", err)
				time.Sleep(1 * time.Second)
				continue
			}

			// result[0] is the queue name, result[1] is the message
			if len(result) < 2 {
				continue
			}

			if err := w.processMessage(ctx, result[1]); err != nil {
				log.Printf("Failed to handle message: %v", err)
				w.deadLetter(ctx, result[1])
			}
		}
	}
}

// Stop signals the worker to stop processing
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processMessage decodes a single message and hands the record to the handler
func (w *Worker) processMessage(ctx context.Context, data string) error {
	msg, err := decodeMessage(data)
	if err != nil {
		return err
	}

	log.Printf("Handling record %d (account %d, %s %s)", msg.Record.ID, msg.Record.AccountID, msg.Record.Kind, msg.Record.Amount)

	if err := w.handler.HandleRecord(ctx, msg.Record); err != nil {
		return fmt.Errorf("failed to handle record %d: %w", msg.Record.ID, err)
	}
	return nil
}

// deadLetter parks a message that could not be handled
func (w *Worker) deadLetter(ctx context.Context, data string) {
	if err := w.client.RPush(ctx, DeadLetterQueue, data).Err(); err != nil {
		log.Printf("Failed to dead-letter message: %v", err)
	}
}

// ProcessOne processes a single message synchronously (useful for testing)
func (w *Worker) ProcessOne(ctx context.Context) error {
	result, err := w.client.LPop(ctx, QueueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil // No message available
		}
		return err
	}

	return w.processMessage(ctx, result)
}

func decodeMessage(data string) (RecordMessage, error) {
	var msg RecordMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return msg, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if !msg.Record.Kind.Valid() {
		return msg, fmt.Errorf("%w: %q", model.ErrInvalidRecordKind, msg.Record.Kind)
	}
	return msg, nil
}
