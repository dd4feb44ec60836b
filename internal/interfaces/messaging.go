package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/pickup/internal/domain"
)

// Routing keys of order events.
const (
	RoutingOrderPlaced        = "order.placed"
	RoutingOrderStatusChanged = "order.status_changed"
)

// RabbitMQ messages
type OrderPlacedMessage struct {
	OrderID      string        `json:"order_id"`
	CustomerName string        `json:"customer_name"`
	PickupDate   string        `json:"pickup_date"`
	PickupTime   string        `json:"pickup_time"`
	ItemCount    int           `json:"item_count"`
	Total        float64       `json:"total"`
	Status       domain.Status `json:"status"`
	PlacedAt     time.Time     `json:"placed_at"`
}

type StatusChangedMessage struct {
	OrderID   string        `json:"order_id"`
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	ChangedAt time.Time     `json:"changed_at"`
}

type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg OrderPlacedMessage) error
	PublishStatusChanged(ctx context.Context, msg StatusChangedMessage) error
}

type OrderEventConsumer interface {
	ConsumeOrderEvents(ctx context.Context, handler OrderEventHandler) error
}

type OrderEventHandler func(ctx context.Context, routingKey string, body []byte) error
