package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/domain"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
	"github.com/google/uuid"
)

// ErrValidation wraps every business rule rejection from CreateOrder.
var ErrValidation = errors.New("validation failed")

type Service struct {
	repo       interfaces.OrderRepository
	publisher  interfaces.MessagePublisher
	dispatcher interfaces.OrderDispatcher
	logger     logger.Logger
	newNumber  func() string
}

// NewService builds the order service. publisher and dispatcher may be nil
// when RabbitMQ or the device bridge is unavailable.
func NewService(repo interfaces.OrderRepository, publisher interfaces.MessagePublisher, dispatcher interfaces.OrderDispatcher, logger logger.Logger) *Service {
	return &Service{
		repo:       repo,
		publisher:  publisher,
		dispatcher: dispatcher,
		logger:     logger,
		newNumber:  func() string { return uuid.New().String() },
	}
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = domain.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	order, err := domain.NewOrder(s.newNumber(), cmd.CustomerName, cmd.PhoneNumber, cmd.DeliveryAddress,
		cmd.Location, cmd.Notes, cmd.TotalAmount, items)
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}
	s.logger.Debug("order_received", "Order created in DB", "", map[string]interface{}{"order_number": order.Number})

	s.dispatch(order)

	return order, nil
}

// dispatch hands the stored order to the device. The order is already
// persisted, so a missing or closed bridge is only logged.
func (s *Service) dispatch(order *domain.Order) {
	if s.dispatcher == nil {
		s.logger.Debug("dispatch_skipped", "Device bridge disabled, order not sent", "",
			map[string]interface{}{"order_number": order.Number})
		return
	}

	if err := s.dispatcher.Submit(*order); err != nil {
		s.logger.Error("dispatch_failed", "Failed to hand order to device bridge", "",
			map[string]interface{}{"order_number": order.Number}, err)
		return
	}
	s.logger.Debug("order_queued", "Order queued for device", "", map[string]interface{}{"order_number": order.Number})
}

func (s *Service) ListOrders(ctx context.Context, status *domain.Status) ([]*domain.Order, error) {
	return s.repo.List(ctx, status)
}

func (s *Service) GetOrder(ctx context.Context, number string) (*domain.Order, error) {
	return s.repo.FindByNumber(ctx, number)
}

func (s *Service) GetOrderHistory(ctx context.Context, number string) ([]*domain.StatusLog, error) {
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.repo.GetStatusHistory(ctx, order.ID)
}

// UpdateOrderStatus applies an admin status change and announces it.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int, status domain.Status) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, domain.ChangedByAdmin)
	if err != nil {
		s.logger.Error("status_update_failed", "Failed to update order status", "",
			map[string]interface{}{"order_id": id}, err)
		return err
	}
	if !updated {
		return domain.ErrOrderNotFound
	}

	oldStatus := order.Status
	if err := order.SetStatus(status); err != nil {
		return err
	}

	s.logger.Info("order_status_updated", "Order status updated by admin", "", map[string]interface{}{
		"order_number": order.Number,
		"old_status":   oldStatus,
		"new_status":   order.Status,
	})

	s.publish(ctx, interfaces.StatusUpdateMessage{
		OrderNumber: order.Number,
		OldStatus:   oldStatus,
		NewStatus:   order.Status,
		ChangedBy:   domain.ChangedByAdmin,
	})

	return nil
}

func (s *Service) publish(ctx context.Context, msg interfaces.StatusUpdateMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "",
			map[string]interface{}{"order_number": msg.OrderNumber}, err)
	}
}
