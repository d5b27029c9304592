// Package events publishes order lifecycle events for downstream
// consumers (fulfillment dashboards, analytics). Publishing is
// best-effort: a broker outage never fails the order.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/khyberwear/khyber-shawls-sub000/internal/config"
	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"

	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	Total      string    `json:"total,omitempty"`
	ItemsCount int       `json:"items_count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(cfg config.Kafka) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           cfg.BatchTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) OrderCreated(ctx context.Context, order entities.Order) error {
	return p.publish(ctx, OrderEvent{
		Type:       TypeOrderCreated,
		OrderID:    order.ID,
		Status:     string(order.Status),
		Total:      order.Total.String(),
		ItemsCount: len(order.Items),
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, orderID string, status entities.OrderStatus) error {
	return p.publish(ctx, OrderEvent{
		Type:       TypeOrderStatusChanged,
		OrderID:    orderID,
		Status:     string(status),
		OccurredAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
