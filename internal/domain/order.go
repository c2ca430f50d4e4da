package domain

import (
	"errors"
	"strings"
	"time"
)

// Order represents a customer order entity
type Order struct {
	ID              int
	Number          string
	CustomerName    string
	PhoneNumber     string
	DeliveryAddress string
	Latitude        float64
	Longitude       float64
	Notes           *string
	TotalAmount     float64
	Status          Status
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem represents an item in an order
type OrderItem struct {
	ID       int
	OrderID  int
	Name     string
	Quantity int
	Price    float64
}

// Location is the delivery coordinate attached to an order.
type Location struct {
	Lat float64
	Lng float64
}

// NewOrder creates a pending order with business rules applied
func NewOrder(number, customerName, phoneNumber, deliveryAddress string, loc Location, notes *string, totalAmount float64, items []OrderItem) (*Order, error) {
	now := time.Now().UTC()
	order := &Order{
		Number:          number,
		CustomerName:    strings.TrimSpace(customerName),
		PhoneNumber:     strings.TrimSpace(phoneNumber),
		DeliveryAddress: strings.TrimSpace(deliveryAddress),
		Latitude:        loc.Lat,
		Longitude:       loc.Lng,
		Notes:           notes,
		TotalAmount:     totalAmount,
		Status:          StatusPending,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if o.Number == "" {
		return errors.New("order number is required")
	}

	if len(o.CustomerName) < 1 || len(o.CustomerName) > 100 {
		return errors.New("customer name must be 1-100 characters")
	}

	if o.PhoneNumber == "" {
		return errors.New("phone number is required")
	}

	if o.DeliveryAddress == "" {
		return errors.New("delivery address is required")
	}

	if o.TotalAmount < 0 {
		return errors.New("total amount must not be negative")
	}

	if len(o.Items) < 1 || len(o.Items) > 50 {
		return errors.New("order must have 1-50 items")
	}

	for _, item := range o.Items {
		if len(item.Name) < 1 || len(item.Name) > 50 {
			return errors.New("item name must be 1-50 characters")
		}
		if item.Quantity < 1 || item.Quantity > 99 {
			return errors.New("item quantity must be 1-99")
		}
		if item.Price < 0 {
			return errors.New("item price must not be negative")
		}
	}

	return nil
}

// SetStatus moves the order to newStatus. Any known status is accepted:
// the device and the admin panel may both correct an order freely.
func (o *Order) SetStatus(newStatus Status) error {
	if !newStatus.Valid() {
		return ErrInvalidStatus
	}
	o.Status = newStatus
	o.UpdatedAt = time.Now().UTC()
	return nil
}

var (
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrOrderNotFound  = errors.New("order not found")
	ErrDeviceNotFound = errors.New("device not found")
)
