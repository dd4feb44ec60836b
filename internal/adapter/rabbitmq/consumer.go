package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn     Connection
	prefetch int
	logger   logger.Logger
}

func NewConsumer(conn Connection, prefetch int, lgr logger.Logger) interfaces.OrderEventConsumer {
	return &consumer{conn: conn, prefetch: prefetch, logger: lgr}
}

// ConsumeOrderEvents delivers every order event to handler until ctx is done,
// reopening the channel after a broker disconnect.
func (c *consumer) ConsumeOrderEvents(ctx context.Context, handler interfaces.OrderEventHandler) error {
	for {
		err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Warn("consumer_disconnected", "Order events consumer disconnected, reconnecting", "", map[string]interface{}{
			"error": err.Error(),
			"delay": reconnectDelay.String(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *consumer) consume(ctx context.Context, handler interfaces.OrderEventHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	if err := declareOrdersExchange(ch); err != nil {
		return err
	}

	// temporary exclusive queue, one per subscriber
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "order.#", ExchangeOrders, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			if err := handler(ctx, msg.RoutingKey, msg.Body); err != nil {
				// unparseable events would be redelivered forever
				msg.Nack(false, false)
				continue
			}
			msg.Ack(false)
		}
	}
}
