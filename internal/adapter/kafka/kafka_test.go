package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/ris-station-index/internal/domain"
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

func testPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, topic: "station-index", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testIndex() domain.Index {
	return domain.Index{Entries: map[string]domain.IndexEntry{
		"München Hbf": {EvaNr: domain.StringIdentifier("8000261"), RL100Code: domain.StringIdentifier("MH"), Lat: 48.140232, Lon: 11.558335},
		"Berlin Hbf":  {EvaNr: domain.StringIdentifier("8011160"), RL100Code: domain.StringIdentifier("BLS"), Lat: 52.525592, Lon: 13.369545},
	}}
}

func TestSerializeToMessage(t *testing.T) {
	entry := domain.IndexEntry{
		StationID: domain.NewIdentifier(json.RawMessage(`1071`)),
		EvaNr:     domain.StringIdentifier("8011160"),
		RL100Code: domain.StringIdentifier("BLS"),
		Lat:       52.525592,
		Lon:       13.369545,
	}

	msg, err := serializeToMessage("Berlin Hbf", entry)
	require.NoError(t, err)

	assert.Equal(t, []byte("Berlin Hbf"), msg.Key)
	assert.JSONEq(t, `{"name":"Berlin Hbf","stationID":1071,"evaNr":"8011160","rl100Code":"BLS","lat":52.525592,"lon":13.369545}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "eva_nr", msg.Headers[0].Key)
	assert.Equal(t, []byte("8011160"), msg.Headers[0].Value)
	assert.Equal(t, "rl100_code", msg.Headers[1].Key)
	assert.Equal(t, []byte("BLS"), msg.Headers[1].Value)
}

func TestPublishIndex_OneBatchInNameOrder(t *testing.T) {
	w := &recordingWriter{}
	p := testPublisher(w)

	n, err := p.PublishIndex(context.Background(), testIndex())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, 1, w.calls)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "Berlin Hbf", string(w.msgs[0].Key))
	assert.Equal(t, "München Hbf", string(w.msgs[1].Key))
}

func TestPublishIndex_EmptyIndexSkipsWrite(t *testing.T) {
	w := &recordingWriter{}

	n, err := testPublisher(w).PublishIndex(context.Background(), domain.Index{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, w.calls)
}

func TestPublishIndex_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker unavailable")}

	_, err := testPublisher(w).PublishIndex(context.Background(), testIndex())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "station-index")
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestPublisher_Close(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, testPublisher(w).Close())
	assert.True(t, w.closed)
}
