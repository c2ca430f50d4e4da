package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn           Connection
	logger         logger.Logger
	reconnectDelay time.Duration
}

func NewConsumer(conn Connection, log logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, logger: log, reconnectDelay: reconnectDelay}
}

// ConsumeNotifications delivers every status update on the fanout exchange to
// handler until ctx is cancelled, resubscribing whenever the channel drops.
func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	for {
		err := c.consumeNotifications(ctx, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", "Notifications consumer disconnected, reconnecting", "",
			map[string]interface{}{"retry_in": c.reconnectDelay.String()}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}

		if c.conn.IsClosed() {
			if err := c.conn.Reconnect(); err != nil {
				c.logger.Error("rabbitmq_reconnect_failed", "Failed to reconnect to RabbitMQ", "", nil, err)
			}
		}
	}
}

func (c *consumer) consumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	// Declare exchange
	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare temporary exclusive queue
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue
	if err := ch.QueueBind(q.Name, "", NotificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
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

			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Debug("notification_skipped", "Notification handler rejected message", "",
					map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
