package events

import (
	"context"
	"encoding/json"
	"time"

	"flower_shop/logger"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events keyed by resource id, so updates to the
// same resource land on the same partition in order.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

// Handler reacts to one consumed event.
type Handler func(ctx context.Context, e Event) error

type Consumer struct {
	r *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 1e6,
		}),
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

// Run blocks until ctx is cancelled or the reader fails.
func (c *Consumer) Run(ctx context.Context, handle Handler) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.LogError("event consumer stopped: %v", err)
			}
			return
		}

		e, err := decode(m)
		if err != nil {
			logger.LogError("event consumer unmarshal: %v", err)
			continue
		}
		if err := handle(ctx, e); err != nil {
			logger.LogError("event %s %s: %v", e.Type, e.ResourceID, err)
		}
	}
}

func encode(e Event) (kafka.Message, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.ResourceID),
		Value: b,
		Time:  e.At,
	}, nil
}

func decode(m kafka.Message) (Event, error) {
	var e Event
	err := json.Unmarshal(m.Value, &e)
	return e, err
}
