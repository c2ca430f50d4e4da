package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/domain"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
)

// An online device that has not reported anything for this long is idle.
const deviceIdleAfter = 5 * time.Minute

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TrackingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/device", h.GetDevice)
}

type DeviceResponse struct {
	Port             string    `json:"port"`
	Status           string    `json:"status"`
	Idle             bool      `json:"idle"`
	OrdersDispatched int       `json:"orders_dispatched"`
	StatusEvents     int       `json:"status_events"`
	LastSeen         time.Time `json:"last_seen"`
}

func (h *TrackingHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.service.GetDevice(r.Context())
	if errors.Is(err, domain.ErrDeviceNotFound) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "No device attached"})
		return
	}
	if err != nil {
		h.logger.Error("device_lookup_failed", "Failed to load device", requestID(r), nil, err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, DeviceResponse{
		Port:             device.Port,
		Status:           string(device.Status),
		Idle:             device.Status == domain.DeviceStatusOnline && !device.IsOnline(deviceIdleAfter),
		OrdersDispatched: device.OrdersDispatched,
		StatusEvents:     device.StatusEvents,
		LastSeen:         device.LastSeen,
	})
}
