// Package kafka publishes generation events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/MikaNatus/open-lovable/pkg/eventstream"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "lovable.generations"

// Config configures a Kafka Publisher.
type Config struct {
	// Brokers lists bootstrap broker addresses (host:port).
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic.
	Topic string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes GenerationEvents as JSON messages keyed by event ID.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewPublisher creates a Publisher from c.
func NewPublisher(c *Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, c.WriteTimeout), nil
}

func newPublisher(w messageWriter, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Publisher{writer: w, timeout: timeout}
}

// PublishGeneration encodes event and writes it to the topic.
func (p *Publisher) PublishGeneration(ctx context.Context, event *eventstream.GenerationEvent) error {
	if event == nil {
		return eventstream.ErrNilGenerationEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding generation event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.EventID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("writing generation event to kafka: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
