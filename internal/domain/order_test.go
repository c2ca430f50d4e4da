package domain

import (
	"strings"
	"testing"
)

func validItems() []OrderItem {
	return []OrderItem{{Name: "Latte", Quantity: 2, Price: 4.5}}
}

func TestNewOrder(t *testing.T) {
	order, err := NewOrder("n-1", "  Alice ", "555-0100", "1 Main St", Location{Lat: 1, Lng: 2}, nil, 9, validItems())
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if order.Status != StatusPending {
		t.Errorf("status = %q, want pending", order.Status)
	}
	if order.CustomerName != "Alice" || order.Latitude != 1 || order.Longitude != 2 {
		t.Errorf("order = %+v", order)
	}
	if order.CreatedAt.IsZero() || !order.CreatedAt.Equal(order.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", order.CreatedAt, order.UpdatedAt)
	}
}

func TestNewOrder_Validation(t *testing.T) {
	tooMany := make([]OrderItem, 51)
	for i := range tooMany {
		tooMany[i] = OrderItem{Name: "x", Quantity: 1}
	}

	tests := []struct {
		name    string
		number  string
		cust    string
		phone   string
		address string
		total   float64
		items   []OrderItem
	}{
		{"missing number", "", "A", "1", "addr", 1, validItems()},
		{"missing name", "n", " ", "1", "addr", 1, validItems()},
		{"long name", "n", strings.Repeat("a", 101), "1", "addr", 1, validItems()},
		{"missing phone", "n", "A", "", "addr", 1, validItems()},
		{"missing address", "n", "A", "1", "", 1, validItems()},
		{"negative total", "n", "A", "1", "addr", -1, validItems()},
		{"no items", "n", "A", "1", "addr", 1, nil},
		{"too many items", "n", "A", "1", "addr", 1, tooMany},
		{"empty item name", "n", "A", "1", "addr", 1, []OrderItem{{Quantity: 1}}},
		{"zero quantity", "n", "A", "1", "addr", 1, []OrderItem{{Name: "x"}}},
		{"quantity over 99", "n", "A", "1", "addr", 1, []OrderItem{{Name: "x", Quantity: 100}}},
		{"negative price", "n", "A", "1", "addr", 1, []OrderItem{{Name: "x", Quantity: 1, Price: -0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOrder(tt.number, tt.cust, tt.phone, tt.address, Location{}, nil, tt.total, tt.items); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOrderSetStatus(t *testing.T) {
	order, err := NewOrder("n", "A", "1", "addr", Location{}, nil, 1, validItems())
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}

	// device and admin may move an order in any direction
	for _, st := range []Status{StatusCompleted, StatusPending, StatusCancelled} {
		if err := order.SetStatus(st); err != nil || order.Status != st {
			t.Errorf("SetStatus(%q) = %v, status %q", st, err, order.Status)
		}
	}

	if err := order.SetStatus("lost"); err != ErrInvalidStatus {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	if order.Status != StatusCancelled {
		t.Errorf("status changed to %q on invalid input", order.Status)
	}
}
