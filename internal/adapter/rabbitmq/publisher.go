package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.OrderEventPublisher {
	return &publisher{conn: conn}
}

func (p *publisher) PublishOrderPlaced(ctx context.Context, msg interfaces.OrderPlacedMessage) error {
	return p.publish(ctx, interfaces.RoutingOrderPlaced, msg)
}

func (p *publisher) PublishStatusChanged(ctx context.Context, msg interfaces.StatusChangedMessage) error {
	return p.publish(ctx, interfaces.RoutingOrderStatusChanged, msg)
}

func (p *publisher) publish(ctx context.Context, routingKey string, msg any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declareOrdersExchange(ch); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, ExchangeOrders, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

type nopPublisher struct{}

// NewNopPublisher is used when messaging is disabled.
func NewNopPublisher() interfaces.OrderEventPublisher {
	return nopPublisher{}
}

func (nopPublisher) PublishOrderPlaced(context.Context, interfaces.OrderPlacedMessage) error {
	return nil
}

func (nopPublisher) PublishStatusChanged(context.Context, interfaces.StatusChangedMessage) error {
	return nil
}
