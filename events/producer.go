package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/storecraft/storefront-api/models"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	Type       string           `json:"type"`
	OrderID    uint             `json:"order_id"`
	OrderRef   string           `json:"order_ref"`
	UserID     string           `json:"user_id"`
	Total      string           `json:"total"`
	Status     string           `json:"status"`
	PayStatus  string           `json:"payment_status"`
	OccurredAt time.Time        `json:"occurred_at"`
	Items      []OrderEventItem `json:"items,omitempty"`
}

type OrderEventItem struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// Producer publishes order lifecycle events for the analytics/notification
// consumers. A nil Producer is valid and drops everything, so the HTTP flow
// never depends on the broker being up.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns nil when no brokers are configured.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// PublishOrderEvent sends one event keyed by user id. Failures are logged and
// swallowed; order persistence is the source of truth.
func (p *Producer) PublishOrderEvent(ctx context.Context, eventType string, order *models.Order) {
	if p == nil {
		return
	}

	event := OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		OrderRef:   order.OrderRef,
		UserID:     order.UserID,
		Total:      order.TotalAmount.String(),
		Status:     string(order.Status),
		PayStatus:  string(order.PaymentStatus),
		OccurredAt: time.Now(),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPriceAtPurchase.String(),
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal order event")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.UserID),
		Value: payload,
	}); err != nil {
		log.Error().Err(err).Str("event", eventType).Uint("order_id", order.ID).Msg("failed to publish order event")
	}
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
