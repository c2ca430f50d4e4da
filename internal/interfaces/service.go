package interfaces

import (
	"context"

	"github.com/YelzhanWeb/orderbridge/internal/domain"
)

// Service interfaces (business logic)
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	ListOrders(ctx context.Context, status *domain.Status) ([]*domain.Order, error)
	GetOrder(ctx context.Context, number string) (*domain.Order, error)
	GetOrderHistory(ctx context.Context, number string) ([]*domain.StatusLog, error)
	UpdateOrderStatus(ctx context.Context, id int, status domain.Status) error
}

type TrackingService interface {
	ApplyDeviceStatus(orderNumber string, status domain.Status)
	RecordDispatch(orderNumber string)
	GetDevice(ctx context.Context) (*domain.Device, error)
}
