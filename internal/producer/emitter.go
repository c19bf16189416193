// Package producer streams replayed records into a Kafka topic.
package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/ourastream/internal/store"
)

// Writer exposes the minimal kafka.Writer surface the emitter needs.
type Writer interface {
	WriteMessages(context.Context, ...kafka.Message) error
}

// RecordSource yields the records to publish. *store.Store satisfies it.
type RecordSource interface {
	Next() (store.Record, error)
}

// Option configures optional behaviour for the Emitter.
type Option func(*Emitter)

// WithLogger overrides the logger used to report publish progress and errors.
func WithLogger(logger *log.Logger) Option {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// Emitter pulls records from a source and publishes each to Kafka, pausing a
// fixed interval between records. Per-message publish failures are logged and
// counted but never stop the loop; only source failures and cancellation do.
type Emitter struct {
	source   RecordSource
	writer   Writer
	topic    string
	interval time.Duration
	logger   *log.Logger
}

// NewEmitter constructs an Emitter.
func NewEmitter(source RecordSource, writer Writer, topic string, interval time.Duration, opts ...Option) *Emitter {
	e := &Emitter{
		source:   source,
		writer:   writer,
		topic:    topic,
		interval: interval,
		logger:   log.New(log.Writer(), "[producer] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run publishes records until the context is cancelled or the source fails.
// The returned error is ctx.Err() on cancellation (a normal exit) or the
// source's failure, which the caller maps to an exit status.
func (e *Emitter) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := e.source.Next()
		if err != nil {
			return err
		}

		payload, err := json.Marshal(rec)
		if err != nil {
			// Records come out of a JSON parser, so this should not happen;
			// treat it like any other malformed unit and keep going.
			e.logger.Printf("marshal error, record dropped: %v", err)
			recordPublishError(e.topic)
			continue
		}

		if err := e.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			e.logger.Printf("publish error (topic=%s): %v", e.topic, err)
			recordPublishError(e.topic)
		} else {
			e.logger.Printf("sent record to topic %q: %s", e.topic, payload)
			recordSent(e.topic)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.interval):
		}
	}
}

// EnsureTopic creates the topic on the cluster controller if it does not
// already exist. Failure here is fatal to producer startup.
func EnsureTopic(brokers []string, topic string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dialing broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("locating controller: %w", err)
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dialing controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("creating topic %q: %w", topic, err)
	}
	return nil
}
