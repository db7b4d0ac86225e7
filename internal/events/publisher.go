package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"mealmart/internal/model"
)

// StatusChange is published whenever an order is forced into a new state.
// Downstream consumers (notifications, audit) key on the order id.
type StatusChange struct {
	OrderID string       `json:"order_id"`
	Status  model.Status `json:"status"`
	Reason  string       `json:"reason,omitempty"`
	At      time.Time    `json:"at"`
}

type Publisher interface {
	PublishStatusChange(ctx context.Context, evt StatusChange) error
	Close() error
}

// KafkaPublisher writes status-change events to a Kafka topic.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishStatusChange(ctx context.Context, evt StatusChange) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: b,
	})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishStatusChange(context.Context, StatusChange) error { return nil }
func (NopPublisher) Close() error                                            { return nil }
