package events

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	kafka "github.com/segmentio/kafka-go"
)

// KafkaParams configures the Kafka sink.
type KafkaParams struct {
	Brokers []string
	Topic   string
}

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes events as JSON messages keyed by aggregate id, so all events of one order
// land on the same partition.
type KafkaSink struct {
	writer messageWriter
	topic  string
}

// NewKafkaSink builds a sink over a kafka-go writer.
func NewKafkaSink(params KafkaParams) (*KafkaSink, error) {
	if len(params.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if params.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(params.Brokers...),
		Topic:                  params.Topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: writer, topic: params.Topic}, nil
}

// Write serialises evt and sends it synchronously.
func (s *KafkaSink) Write(ctx context.Context, evt Event) error {
	msg, err := ToMessage(evt)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", evt.Type, s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// ToMessage maps an event onto a Kafka message.
func ToMessage(evt Event) (kafka.Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", evt.ID, err)
	}
	return kafka.Message{
		Key:   []byte(evt.AggregateID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
			{Key: "event-id", Value: []byte(evt.ID)},
		},
	}, nil
}

// FromMessage decodes an event previously produced by ToMessage.
func FromMessage(msg kafka.Message) (Event, error) {
	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return evt, nil
}
