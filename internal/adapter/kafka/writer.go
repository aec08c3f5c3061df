package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/ris-station-index/internal/config"
	"github.com/couchcryptid/ris-station-index/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces station index entries to a Kafka topic.
// It implements pipeline.IndexPublisher.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured stations topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaStationsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, topic: cfg.KafkaStationsTopic, logger: logger}
}

// PublishIndex writes one message per index entry, keyed by station name and
// in name order, in a single WriteMessages call. It returns the number of
// messages written.
func (p *Publisher) PublishIndex(ctx context.Context, idx domain.Index) (int, error) {
	names := idx.SortedNames()
	if len(names) == 0 {
		return 0, nil
	}
	msgs := make([]kafkago.Message, len(names))
	for i, name := range names {
		msg, err := serializeToMessage(name, idx.Entries[name])
		if err != nil {
			return 0, err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish station index to %s: %w", p.topic, err)
	}
	p.logger.Info("published station index", "topic", p.topic, "entries", len(msgs))
	return len(msgs), nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// stationMessage is the value written for each station.
type stationMessage struct {
	Name string `json:"name"`
	domain.IndexEntry
}

// serializeToMessage marshals an index entry into a Kafka message.
func serializeToMessage(name string, entry domain.IndexEntry) (kafkago.Message, error) {
	data, err := json.Marshal(stationMessage{Name: name, IndexEntry: entry})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station %q: %w", name, err)
	}
	return kafkago.Message{
		Key:   []byte(name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "eva_nr", Value: []byte(entry.EvaNr.String())},
			{Key: "rl100_code", Value: []byte(entry.RL100Code.String())},
		},
	}, nil
}
