// Package kafka consumes document change events from a Kafka topic and
// applies them to the document store and index.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/domain"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driving"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/importer"
	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/logger"
)

// Change operations.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// DeadLetterSuffix is appended to the topic name for failed messages.
const DeadLetterSuffix = "_dlq"

// Event is the message payload. Document is required for upserts and
// ID for deletes.
type Event struct {
	Op       string           `json:"op"`
	ID       string           `json:"id,omitempty"`
	Document *importer.Record `json:"document,omitempty"`
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer used for dead letters.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer applies change events in partition order and commits each
// message once it is handled or dead-lettered.
type Consumer struct {
	reader      MessageReader
	deadLetters MessageWriter
	docs        driving.DocumentService
	backoff     time.Duration
}

// NewConsumer creates a consumer. deadLetters may be nil, in which case
// failed messages are logged and committed. Otherwise a failed message is
// committed only after it reaches the dead-letter topic.
func NewConsumer(reader MessageReader, deadLetters MessageWriter, docs driving.DocumentService) *Consumer {
	return &Consumer{
		reader:      reader,
		deadLetters: deadLetters,
		docs:        docs,
		backoff:     time.Second,
	}
}

// NewReader creates a consumer-group reader with manual commits.
func NewReader(settings domain.KafkaSettings) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        settings.Brokers,
		Topic:          settings.Topic,
		GroupID:        settings.GroupID,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
}

// NewDeadLetterWriter creates a writer for the topic's dead-letter topic.
func NewDeadLetterWriter(settings domain.KafkaSettings) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(settings.Brokers...),
		Topic:        settings.Topic + DeadLetterSuffix,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	logger.Info("kafka: consuming document changes")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error("kafka: fetch message: %v", err)
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		if err := c.Process(ctx, msg); err != nil {
			logger.Warn("kafka: message %d/%d failed: %v", msg.Partition, msg.Offset, err)
			if !c.deadLetter(ctx, msg, err) {
				// Stopping with msg uncommitted. Nothing after it on the
				// partition has been committed either, so it is redelivered.
				return nil
			}
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error("kafka: commit message %d/%d: %v", msg.Partition, msg.Offset, err)
		}
	}
}

// Close closes the reader and the dead-letter writer.
func (c *Consumer) Close() error {
	err := c.reader.Close()
	if c.deadLetters != nil {
		err = errors.Join(err, c.deadLetters.Close())
	}
	return err
}

// Process applies one message.
func (c *Consumer) Process(ctx context.Context, msg kafka.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: decode event: %w", domain.ErrInvalidInput, err)
	}

	switch strings.ToLower(event.Op) {
	case OpUpsert, "":
		if event.Document == nil {
			return fmt.Errorf("%w: upsert without document", domain.ErrInvalidInput)
		}
		doc, err := event.Document.Document()
		if err != nil {
			return err
		}
		results, err := c.docs.Ingest(ctx, []domain.Document{doc})
		if err != nil {
			return err
		}
		if len(results) == 1 && results[0].Err != nil {
			return results[0].Err
		}
		logger.Debug("kafka: %s %s", doc.ID, results[0].Status)
		return nil
	case OpDelete:
		id := event.ID
		if id == "" && event.Document != nil {
			id = event.Document.ID
			if id == "" && event.Document.URL != "" {
				id = importer.DocumentID(event.Document.URL)
			}
		}
		if id == "" {
			return fmt.Errorf("%w: delete without id", domain.ErrInvalidInput)
		}
		err := c.docs.Delete(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("%w: unknown op %q", domain.ErrInvalidInput, event.Op)
	}
}

// deadLetter writes msg to the dead-letter topic, retrying until the
// write succeeds or ctx ends. It reports whether msg may be committed.
// Committing a later offset would also commit msg, so the consumer does
// not move past it while the dead-letter topic is unavailable.
func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) bool {
	if c.deadLetters == nil {
		return true
	}
	dlq := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "error_kind", Value: []byte(domain.KindOf(cause))},
		),
	}
	for attempt := 1; ; attempt++ {
		err := c.deadLetters.WriteMessages(ctx, dlq)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		logger.Warn("kafka: dead-letter write for %d/%d failed (attempt %d): %v",
			msg.Partition, msg.Offset, attempt, err)
		if !c.wait(ctx) {
			return false
		}
	}
}

func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-time.After(c.backoff):
		return true
	case <-ctx.Done():
		return false
	}
}
