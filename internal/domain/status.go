package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPreparing  Status = "preparing"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statuses = []Status{
	StatusPending,
	StatusPreparing,
	StatusDelivering,
	StatusCompleted,
	StatusCancelled,
}

// ParseStatus maps s onto the closed status set, ignoring case.
func ParseStatus(s string) (Status, error) {
	lower := Status(strings.ToLower(s))
	for _, st := range statuses {
		if st == lower {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Who changed an order status.
const (
	ChangedByOrderService = "order-service"
	ChangedByAdmin        = "admin"
	ChangedByDevice       = "device"
)

// StatusLog represents a log entry for order status changes
type StatusLog struct {
	ID        int
	OrderID   int
	Status    Status
	ChangedBy string
	ChangedAt time.Time
}
