package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/domain"
)

// RabbitMQ messages
type StatusUpdateMessage struct {
	OrderNumber string        `json:"order_number"`
	OldStatus   domain.Status `json:"old_status,omitempty"`
	NewStatus   domain.Status `json:"new_status"`
	ChangedBy   string        `json:"changed_by"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Commands for services
type CreateOrderCommand struct {
	CustomerName    string
	PhoneNumber     string
	DeliveryAddress string
	Location        domain.Location
	Notes           *string
	TotalAmount     float64
	Items           []CreateOrderItemCommand
}

type CreateOrderItemCommand struct {
	Name     string
	Quantity int
	Price    float64
}

// Messaging interfaces (adapter/rabbitmq)
type MessagePublisher interface {
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error

// OrderDispatcher hands a created order to the device bridge.
type OrderDispatcher interface {
	Submit(order domain.Order) error
}
