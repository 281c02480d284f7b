package kafka

import (
	"context"
	"encoding/json"

	"github.com/gowebpki/jcs"
	"github.com/segmentio/kafka-go"

	"payment-instructions/internal/domain"
	"payment-instructions/internal/events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

// message keys by correlation id so notifications for one request stay on
// one partition. The value is RFC 8785 canonical JSON.
func message(event domain.InstructionProcessed) (kafka.Message, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	value, err := jcs.Transform(raw)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.CorrelationID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "status_code", Value: []byte(event.Outcome.StatusCode.String())},
		},
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, event domain.InstructionProcessed) error {
	msg, err := message(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error { return p.writer.Close() }
