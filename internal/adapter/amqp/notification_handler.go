package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

// NotificationHandler prints an admin notice for every order event.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{logger: logger, out: os.Stdout}
}

func (h *NotificationHandler) HandleOrderEvent(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case interfaces.RoutingOrderPlaced:
		var msg interfaces.OrderPlacedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			h.logger.Error("message_parse_failed", "Failed to parse order placed event", "", nil, err)
			return err
		}

		h.logger.Debug("notification_received", fmt.Sprintf("New order %s", msg.OrderID), msg.OrderID, map[string]interface{}{
			"pickup_date": msg.PickupDate,
			"pickup_time": msg.PickupTime,
		})
		fmt.Fprintf(h.out, "New order %s from %s: %d item(s), $%.2f, pickup %s at %s\n",
			msg.OrderID, msg.CustomerName, msg.ItemCount, msg.Total, msg.PickupDate, msg.PickupTime)

	case interfaces.RoutingOrderStatusChanged:
		var msg interfaces.StatusChangedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			h.logger.Error("message_parse_failed", "Failed to parse status changed event", "", nil, err)
			return err
		}

		h.logger.Debug("notification_received", fmt.Sprintf("Status update for order %s", msg.OrderID), msg.OrderID, map[string]interface{}{
			"new_status": msg.NewStatus,
		})
		fmt.Fprintf(h.out, "Order %s: status changed from '%s' to '%s'\n", msg.OrderID, msg.OldStatus, msg.NewStatus)

	default:
		h.logger.Warn("unknown_event", "Ignoring event with unknown routing key", "", map[string]interface{}{
			"routing_key": routingKey,
		})
	}
	return nil
}
