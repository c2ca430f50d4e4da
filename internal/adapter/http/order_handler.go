package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/app/order"
	"github.com/YelzhanWeb/orderbridge/internal/domain"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
)

const maxBodyBytes = 1 << 20

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the order routes on mux.
func (h *OrderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders/create", h.CreateOrder)
	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{number}", h.GetOrder)
	mux.HandleFunc("GET /api/orders/{number}/history", h.GetOrderHistory)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.UpdateOrderStatus)
}

type CreateOrderRequest struct {
	CustomerName    string             `json:"customer_name"`
	PhoneNumber     string             `json:"phone_number"`
	DeliveryAddress string             `json:"delivery_address"`
	Location        LocationRequest    `json:"location"`
	Notes           *string            `json:"notes,omitempty"`
	TotalAmount     float64            `json:"total_amount"`
	Items           []OrderItemRequest `json:"items"`
}

type LocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type OrderItemRequest struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type CreateOrderResponse struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"order_number"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type UpdateOrderStatusResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
}

type OrderResponse struct {
	ID              int                 `json:"id"`
	OrderNumber     string              `json:"order_number"`
	CustomerName    string              `json:"customer_name"`
	PhoneNumber     string              `json:"phone_number"`
	DeliveryAddress string              `json:"delivery_address"`
	Latitude        float64             `json:"latitude"`
	Longitude       float64             `json:"longitude"`
	Notes           *string             `json:"notes"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	TotalAmount     float64             `json:"total_amount"`
	Status          string              `json:"status"`
	Items           []OrderItemResponse `json:"items"`
}

type OrderItemResponse struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type StatusLogResponse struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Digits with optional +, spaces, dashes and parentheses.
var phoneNumberRegex = regexp.MustCompile(`^\+?[0-9\s\-()]{5,20}$`)

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if validationErrors := validateCreateOrderRequest(req); len(validationErrors) > 0 {
		h.logger.Error("validation_failed", "Order validation failed", requestID(r), map[string]interface{}{
			"errors": validationErrors,
		}, fmt.Errorf("validation failed"))

		h.respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	cmd := interfaces.CreateOrderCommand{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Location:        domain.Location{Lat: req.Location.Lat, Lng: req.Location.Lng},
		Notes:           req.Notes,
		TotalAmount:     req.TotalAmount,
		Items:           convertItemsToCommand(req.Items),
	}

	result, err := h.service.CreateOrder(r.Context(), cmd)
	if errors.Is(err, order.ErrValidation) {
		h.respondError(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", requestID(r), nil, err)
		respondJSON(w, http.StatusInternalServerError, CreateOrderResponse{Success: false})
		return
	}

	respondJSON(w, http.StatusOK, CreateOrderResponse{
		Success:     true,
		OrderNumber: result.Number,
	})
}

// ListOrders ignores a status filter it cannot parse and lists everything.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var filter *domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		if status, err := domain.ParseStatus(raw); err == nil {
			filter = &status
		}
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.logger.Error("order_list_failed", "Failed to list orders", requestID(r), nil, err)
		h.respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	resp := OrderListResponse{Orders: make([]OrderResponse, len(orders))}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrder(r.Context(), r.PathValue("number"))
	if errors.Is(err, domain.ErrOrderNotFound) {
		h.respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		h.logger.Error("order_lookup_failed", "Failed to get order", requestID(r), nil, err)
		h.respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(result))
}

func (h *OrderHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetOrderHistory(r.Context(), r.PathValue("number"))
	if errors.Is(err, domain.ErrOrderNotFound) {
		h.respondError(w, "Order not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		h.logger.Error("order_history_failed", "Failed to get order history", requestID(r), nil, err)
		h.respondError(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	resp := make([]StatusLogResponse, len(history))
	for i, log := range history {
		resp[i] = StatusLogResponse{
			Status:    string(log.Status),
			ChangedBy: log.ChangedBy,
			Timestamp: log.ChangedAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		respondStatusUpdate(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondStatusUpdate(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		respondStatusUpdate(w, http.StatusBadRequest, fmt.Sprintf("Invalid status: %s", req.Status))
		return
	}

	err = h.service.UpdateOrderStatus(r.Context(), id, status)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, UpdateOrderStatusResponse{Success: true})
	case errors.Is(err, domain.ErrOrderNotFound):
		respondStatusUpdate(w, http.StatusNotFound, "Order not found")
	default:
		h.logger.Error("status_update_failed", "Failed to update order status", requestID(r),
			map[string]interface{}{"order_id": id}, err)
		respondStatusUpdate(w, http.StatusInternalServerError, fmt.Sprintf("Failed to update order status: %v", err))
	}
}

func validateCreateOrderRequest(req CreateOrderRequest) []ValidationError {
	var errors []ValidationError

	customerName := strings.TrimSpace(req.CustomerName)
	if len(customerName) < 1 {
		errors = append(errors, ValidationError{
			Field:   "customer_name",
			Message: "customer name is required",
		})
	} else if len(customerName) > 100 {
		errors = append(errors, ValidationError{
			Field:   "customer_name",
			Message: "customer name must not exceed 100 characters",
		})
	}

	phoneNumber := strings.TrimSpace(req.PhoneNumber)
	if phoneNumber == "" {
		errors = append(errors, ValidationError{
			Field:   "phone_number",
			Message: "phone number is required",
		})
	} else if !phoneNumberRegex.MatchString(phoneNumber) {
		errors = append(errors, ValidationError{
			Field:   "phone_number",
			Message: "phone number must contain only digits, spaces, dashes, parentheses and a leading +",
		})
	}

	if strings.TrimSpace(req.DeliveryAddress) == "" {
		errors = append(errors, ValidationError{
			Field:   "delivery_address",
			Message: "delivery address is required",
		})
	}

	if req.Location.Lat < -90 || req.Location.Lat > 90 || req.Location.Lng < -180 || req.Location.Lng > 180 {
		errors = append(errors, ValidationError{
			Field:   "location",
			Message: "location must be a valid latitude and longitude",
		})
	}

	if req.TotalAmount < 0 {
		errors = append(errors, ValidationError{
			Field:   "total_amount",
			Message: "total amount must not be negative",
		})
	}

	if len(req.Items) < 1 {
		errors = append(errors, ValidationError{
			Field:   "items",
			Message: "order must contain at least 1 item",
		})
	} else if len(req.Items) > 50 {
		errors = append(errors, ValidationError{
			Field:   "items",
			Message: "order must not contain more than 50 items",
		})
	}

	for i, item := range req.Items {
		itemPrefix := fmt.Sprintf("items[%d]", i)

		itemName := strings.TrimSpace(item.Name)
		if len(itemName) < 1 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.name", itemPrefix),
				Message: "item name is required",
			})
		} else if len(itemName) > 50 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.name", itemPrefix),
				Message: "item name must not exceed 50 characters",
			})
		}

		if item.Quantity < 1 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.quantity", itemPrefix),
				Message: "item quantity must be at least 1",
			})
		} else if item.Quantity > 99 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.quantity", itemPrefix),
				Message: "item quantity must not exceed 99",
			})
		}

		if item.Price < 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.price", itemPrefix),
				Message: "item price must not be negative",
			})
		}
	}

	return errors
}

func convertItemsToCommand(items []OrderItemRequest) []interfaces.CreateOrderItemCommand {
	result := make([]interfaces.CreateOrderItemCommand, len(items))
	for i, item := range items {
		result[i] = interfaces.CreateOrderItemCommand{
			Name:     strings.TrimSpace(item.Name),
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	return result
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{Name: item.Name, Quantity: item.Quantity, Price: item.Price}
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.Number,
		CustomerName:    o.CustomerName,
		PhoneNumber:     o.PhoneNumber,
		DeliveryAddress: o.DeliveryAddress,
		Latitude:        o.Latitude,
		Longitude:       o.Longitude,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		Items:           items,
	}
}

func respondStatusUpdate(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, UpdateOrderStatusResponse{Success: false, Message: &message})
}

func (h *OrderHandler) respondError(w http.ResponseWriter, message string, statusCode int, validationErrors []ValidationError) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:  message,
		Errors: validationErrors,
	})
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
