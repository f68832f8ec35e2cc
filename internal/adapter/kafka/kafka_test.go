package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/covid-forecast/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	calls  int
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func testForecast() domain.Forecast {
	nan := math.NaN()
	return domain.Forecast{
		Location:            domain.Location{Region: "Canada", SubRegion: "Quebec"},
		Date:                time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
		Partition:           domain.PartitionTest,
		Cumulative:          [domain.NumFields]float64{nan, nan},
		PredictedLogNew:     [domain.NumFields]float64{math.Log1p(5), 0},
		PredictedCumulative: [domain.NumFields]float64{105, 3},
	}
}

func testPublisher(w messageWriter, now time.Time) *Publisher {
	return &Publisher{
		writer: w,
		clock:  clockwork.NewFakeClockAt(now),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2020, 3, 25, 6, 0, 0, 0, time.UTC)

	msg, err := serializeToMessage(testForecast(), now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Canada/Quebec"), msg.Key)
	assert.Contains(t, string(msg.Value), `"predicted_confirmed_cases":105`)
	assert.Contains(t, string(msg.Value), `"confirmed_cases":null`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "partition", msg.Headers[0].Key)
	assert.Equal(t, []byte("test"), msg.Headers[0].Value)
	assert.Equal(t, []byte("2020-04-01"), msg.Headers[1].Value)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublish_SingleBatch(t *testing.T) {
	w := &recordingWriter{}
	p := testPublisher(w, time.Date(2020, 3, 25, 0, 0, 0, 0, time.UTC))

	f2 := testForecast()
	f2.Date = f2.Date.AddDate(0, 0, 1)
	require.NoError(t, p.Publish(context.Background(), []domain.Forecast{testForecast(), f2}))

	assert.Equal(t, 1, w.calls)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("2020-04-02"), w.msgs[1].Headers[1].Value)
}

func TestPublish_Empty(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, testPublisher(w, time.Now()).Publish(context.Background(), nil))
	assert.Zero(t, w.calls)
}

func TestPublish_WriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	err := testPublisher(w, time.Now()).Publish(context.Background(), []domain.Forecast{testForecast()})
	require.ErrorContains(t, err, "broker down")
}

func TestClose(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, testPublisher(w, time.Now()).Close())
	assert.True(t, w.closed)
}
