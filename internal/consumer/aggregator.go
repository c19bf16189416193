// Package consumer pulls activity records from Kafka and folds them into the
// in-memory series state.
package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"example.com/ourastream/internal/series"
)

// unknownDay is appended when an inbound record carries no day field.
const unknownDay = "unknown_day"

// Reader exposes the minimal kafka.Reader surface needed by the aggregator.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Observer is notified after every successful append with a snapshot of the
// whole series state.
type Observer interface {
	SeriesUpdated(series.Snapshot)
}

// Option configures optional behaviour for the Aggregator.
type Option func(*Aggregator)

// WithLogger overrides the logger used to report progress and errors.
func WithLogger(logger *log.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithObserver registers the observer triggered after each append.
func WithObserver(observer Observer) Option {
	return func(a *Aggregator) {
		a.observer = observer
	}
}

// Aggregator consumes the topic and appends one entry to the series state per
// successfully decoded message. A malformed message never stops the loop.
type Aggregator struct {
	reader   Reader
	state    *series.State
	observer Observer
	logger   *log.Logger
}

// NewAggregator constructs an Aggregator that owns the given state.
func NewAggregator(reader Reader, state *series.State, opts ...Option) *Aggregator {
	a := &Aggregator{
		reader: reader,
		state:  state,
		logger: log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run blocks on the topic until the context is cancelled, which is the normal
// exit path and surfaces as context.Canceled.
func (a *Aggregator) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := a.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			a.logger.Printf("fetch error: %v", err)
			continue
		}

		entry, decodeErr := decodeRecord(msg.Value)
		if decodeErr != nil {
			a.logger.Printf("decode error (topic=%s, partition=%d, offset=%d): %v", msg.Topic, msg.Partition, msg.Offset, decodeErr)
			recordDecodeError(msg.Topic)
			// Commit malformed messages to avoid poison-pill loops.
			if commitErr := a.reader.CommitMessages(ctx, msg); commitErr != nil {
				a.logger.Printf("commit error after decode failure: %v", commitErr)
			}
			continue
		}

		a.logger.Printf("entry day=%s calories=%s activity=%s", entry.day, formatNullable(entry.calories), formatNullable(entry.activity))
		a.state.Append(entry.day, entry.calories, entry.activity)

		if commitErr := a.reader.CommitMessages(ctx, msg); commitErr != nil {
			a.logger.Printf("commit error: %v", commitErr)
		} else {
			recordProcessed(msg.Topic, msg.Time, a.state.Len())
		}

		if a.observer != nil {
			a.observer.SeriesUpdated(a.state.Snapshot())
		}
	}
}

// entry is the decoded shape the series cares about. Calories and activity
// stay nil when the record omits them.
type entry struct {
	day      string
	calories *int
	activity *int
}

func decodeRecord(payload []byte) (entry, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return entry{}, fmt.Errorf("payload is not a JSON object: %q", truncate(trimmed, 64))
	}

	var rec struct {
		Day              *string `json:"day"`
		TotalCalories    *int    `json:"total_calories"`
		HighActivityTime *int    `json:"high_activity_time"`
	}
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return entry{}, err
	}

	e := entry{
		day:      unknownDay,
		calories: rec.TotalCalories,
		activity: rec.HighActivityTime,
	}
	if rec.Day != nil {
		e.day = *rec.Day
	}
	return e, nil
}

func formatNullable(v *int) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *v)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
