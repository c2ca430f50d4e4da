package tracking

import (
	"context"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/domain"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
)

const applyTimeout = 5 * time.Second

// Service applies status reports coming back from the device.
type Service struct {
	orderRepo  interfaces.OrderRepository
	deviceRepo interfaces.DeviceRepository
	publisher  interfaces.MessagePublisher
	devicePort string
	logger     logger.Logger
}

// NewService builds the tracking service for the device on devicePort.
// An empty devicePort means no device is attached.
func NewService(orderRepo interfaces.OrderRepository, deviceRepo interfaces.DeviceRepository, publisher interfaces.MessagePublisher, devicePort string, logger logger.Logger) *Service {
	return &Service{
		orderRepo:  orderRepo,
		deviceRepo: deviceRepo,
		publisher:  publisher,
		devicePort: devicePort,
		logger:     logger,
	}
}

// ApplyDeviceStatus records a status reported by the device. It runs on the
// serial reader goroutine, so every failure is logged and swallowed.
func (s *Service) ApplyDeviceStatus(orderNumber string, status domain.Status) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	details := map[string]interface{}{
		"order_number": orderNumber,
		"new_status":   status,
	}

	var oldStatus domain.Status
	if order, err := s.orderRepo.FindByNumber(ctx, orderNumber); err == nil {
		oldStatus = order.Status
	}

	updated, err := s.orderRepo.UpdateStatusByNumber(ctx, orderNumber, status, domain.ChangedByDevice)
	if err != nil {
		s.logger.Error("status_update_failed", "Failed to apply device status", "", details, err)
		return
	}
	if !updated {
		s.logger.Error("status_update_failed", "Device reported status for unknown order", "", details, domain.ErrOrderNotFound)
		return
	}

	if s.deviceRepo != nil && s.devicePort != "" {
		if err := s.deviceRepo.RecordStatusEvent(ctx, s.devicePort); err != nil {
			s.logger.Error("device_update_failed", "Failed to record device status event", "", details, err)
		}
	}

	s.logger.Info("order_status_updated", "Order status updated by device", "", details)

	if s.publisher == nil {
		return
	}
	err = s.publisher.PublishStatusUpdate(ctx, interfaces.StatusUpdateMessage{
		OrderNumber: orderNumber,
		OldStatus:   oldStatus,
		NewStatus:   status,
		ChangedBy:   domain.ChangedByDevice,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "", details, err)
	}
}

// RecordDispatch counts an order written to the device.
func (s *Service) RecordDispatch(orderNumber string) {
	if s.deviceRepo == nil || s.devicePort == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	if err := s.deviceRepo.IncrementDispatched(ctx, s.devicePort); err != nil {
		s.logger.Error("device_update_failed", "Failed to count dispatched order", "", map[string]interface{}{
			"order_number": orderNumber,
		}, err)
	}
}

// GetDevice returns the attached device record.
func (s *Service) GetDevice(ctx context.Context) (*domain.Device, error) {
	if s.deviceRepo == nil || s.devicePort == "" {
		return nil, domain.ErrDeviceNotFound
	}
	return s.deviceRepo.FindByPort(ctx, s.devicePort)
}
