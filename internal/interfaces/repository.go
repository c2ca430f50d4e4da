package interfaces

import (
	"context"

	"github.com/YelzhanWeb/orderbridge/internal/domain"
)

// Repository interfaces (adapter/postgres)
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	FindByID(ctx context.Context, id int) (*domain.Order, error)
	List(ctx context.Context, status *domain.Status) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id int, status domain.Status, changedBy string) (bool, error)
	UpdateStatusByNumber(ctx context.Context, number string, status domain.Status, changedBy string) (bool, error)
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
}

type DeviceRepository interface {
	Upsert(ctx context.Context, device *domain.Device) error
	FindByPort(ctx context.Context, port string) (*domain.Device, error)
	SetStatus(ctx context.Context, port string, status domain.DeviceStatus) error
	IncrementDispatched(ctx context.Context, port string) error
	RecordStatusEvent(ctx context.Context, port string) error
}
