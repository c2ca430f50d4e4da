package serial

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/YelzhanWeb/orderbridge/internal/domain"
)

const (
	MessageTypeNewOrder     = "new_order"
	MessageTypeStatusUpdate = "status_update"
)

var (
	ErrFrameDecode   = errors.New("malformed frame")
	ErrNotStatus     = errors.New("frame is not a status update")
	ErrUnknownStatus = errors.New("unknown order status")
)

// Message is the single JSON object carried by one frame. Status and Items
// are always present on the wire and are null when unused.
type Message struct {
	MessageType string      `json:"message_type"`
	OrderNumber string      `json:"order_number"`
	Status      *string     `json:"status"`
	Items       []FrameItem `json:"items"`
}

// FrameItem is the device-facing view of an order item. Prices and
// customer data never leave the server.
type FrameItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// NewDispatchMessage builds the new_order message for o.
func NewDispatchMessage(o domain.Order) Message {
	items := make([]FrameItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, FrameItem{Name: it.Name, Quantity: it.Quantity})
	}
	return Message{
		MessageType: MessageTypeNewOrder,
		OrderNumber: o.Number,
		Items:       items,
	}
}

// EncodeFrame marshals msg and appends the frame terminator.
func EncodeFrame(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", msg.MessageType, err)
	}
	return append(data, '\n'), nil
}

// StatusEvent is a decoded status_update frame.
type StatusEvent struct {
	OrderNumber string
	Status      domain.Status
}

// DecodeStatusLine parses one complete line (without its terminator) as a
// status_update frame.
func DecodeStatusLine(line []byte) (StatusEvent, error) {
	if !utf8.Valid(line) {
		return StatusEvent{}, fmt.Errorf("%w: invalid utf-8", ErrFrameDecode)
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return StatusEvent{}, fmt.Errorf("%w: %v", ErrFrameDecode, err)
	}

	if msg.MessageType != MessageTypeStatusUpdate {
		return StatusEvent{}, fmt.Errorf("%w: %q", ErrNotStatus, msg.MessageType)
	}
	if msg.Status == nil {
		return StatusEvent{}, fmt.Errorf("%w: missing status", ErrUnknownStatus)
	}

	status, err := domain.ParseStatus(*msg.Status)
	if err != nil {
		return StatusEvent{}, fmt.Errorf("%w: %q", ErrUnknownStatus, *msg.Status)
	}

	return StatusEvent{OrderNumber: msg.OrderNumber, Status: status}, nil
}
