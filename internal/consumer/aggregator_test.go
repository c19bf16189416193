package consumer

import (
	"context"
	"log"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/ourastream/internal/series"
)

func message(payload string) kafka.Message {
	return kafka.Message{Topic: "oura_topic", Value: []byte(payload)}
}

func newTestAggregator(t *testing.T, reader Reader, state *series.State, observer Observer) *Aggregator {
	t.Helper()
	opts := []Option{WithLogger(log.New(testWriter{t}, "", 0))}
	if observer != nil {
		opts = append(opts, WithObserver(observer))
	}
	return NewAggregator(reader, state, opts...)
}

func TestAggregatorAppendsDecodedRecords(t *testing.T) {
	reader := &stubReader{
		messages: []kafka.Message{
			message(`{"day":"2022-01-28","total_calories":2978,"high_activity_time":0}`),
			message(`{"day":"2022-01-29","total_calories":3012,"high_activity_time":25}`),
		},
	}
	state := series.NewState()
	observer := &stubObserver{}

	agg := newTestAggregator(t, reader, state, observer)
	err := agg.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	snap := state.Snapshot()
	require.Equal(t, []string{"2022-01-28", "2022-01-29"}, snap.Days)
	require.Len(t, snap.Calories, 2)
	require.Len(t, snap.Activity, 2)
	require.Equal(t, 2978, *snap.Calories[0])
	require.Equal(t, 0, *snap.Activity[0])
	require.Equal(t, 3012, *snap.Calories[1])
	require.Equal(t, 25, *snap.Activity[1])

	require.Equal(t, 2, observer.calls)
	require.Equal(t, 2, len(observer.last.Days))
	require.Equal(t, 2, reader.commitCalls)
}

func TestAggregatorDefaultsMissingFields(t *testing.T) {
	reader := &stubReader{
		messages: []kafka.Message{
			message(`{"high_activity_time":12}`),
			message(`{"day":"2022-01-30"}`),
		},
	}
	state := series.NewState()

	agg := newTestAggregator(t, reader, state, nil)
	err := agg.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	snap := state.Snapshot()
	require.Equal(t, []string{"unknown_day", "2022-01-30"}, snap.Days)

	require.Nil(t, snap.Calories[0])
	require.Equal(t, 12, *snap.Activity[0])

	require.Nil(t, snap.Calories[1])
	require.Nil(t, snap.Activity[1])
}

func TestAggregatorDiscardsMalformedPayloads(t *testing.T) {
	reader := &stubReader{
		messages: []kafka.Message{
			message(`{bad json`),
			message(`[1,2,3]`),
			message(`null`),
			message(`{"day":"2022-01-28","total_calories":2978}`),
		},
	}
	state := series.NewState()
	observer := &stubObserver{}

	agg := newTestAggregator(t, reader, state, observer)
	err := agg.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	// Decode failures do not advance the series.
	require.Equal(t, 1, state.Len())
	require.Equal(t, 1, observer.calls)
	require.Equal(t, []string{"2022-01-28"}, state.Snapshot().Days)

	// Malformed messages are still committed so they are not refetched.
	require.Equal(t, 4, reader.commitCalls)
}

func TestAggregatorKeepsSeriesInLockStep(t *testing.T) {
	reader := &stubReader{
		messages: []kafka.Message{
			message(`{"day":"a"}`),
			message(`not json`),
			message(`{"day":"b","total_calories":1}`),
			message(`{"high_activity_time":2}`),
		},
	}
	state := series.NewState()
	observer := &stubObserver{}

	agg := newTestAggregator(t, reader, state, observer)
	err := agg.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	for _, snap := range observer.all {
		require.Equal(t, len(snap.Days), len(snap.Calories))
		require.Equal(t, len(snap.Days), len(snap.Activity))
	}
	require.Equal(t, 3, state.Len())
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubObserver struct {
	calls int
	last  series.Snapshot
	all   []series.Snapshot
}

func (o *stubObserver) SeriesUpdated(snap series.Snapshot) {
	o.calls++
	o.last = snap
	o.all = append(o.all, snap)
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
