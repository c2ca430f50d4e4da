package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
)

// NotificationHandler prints every status update it receives, one line each.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return NewNotificationHandlerWithWriter(logger, os.Stdout)
}

func NewNotificationHandlerWithWriter(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}
	if msg.OrderNumber == "" || msg.NewStatus == "" {
		err := fmt.Errorf("notification missing order number or status")
		h.logger.Error("message_parse_failed", "Incomplete notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", msg.OrderNumber),
		msg.OrderNumber, map[string]interface{}{
			"order_number": msg.OrderNumber,
			"new_status":   msg.NewStatus,
			"changed_by":   msg.ChangedBy,
		})

	if msg.OldStatus == "" {
		_, err := fmt.Fprintf(h.out, "Notification for order %s: status set to '%s' by %s\n",
			msg.OrderNumber, msg.NewStatus, msg.ChangedBy)
		return err
	}
	_, err := fmt.Fprintf(h.out, "Notification for order %s: Status changed from '%s' to '%s' by %s\n",
		msg.OrderNumber, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	return err
}
