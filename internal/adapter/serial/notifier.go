package serial

import (
	"fmt"
	"sync"

	"github.com/YelzhanWeb/orderbridge/internal/domain"
)

// StatusFunc receives device-reported status changes. It is called from
// the reader goroutine and must handle its own failures.
type StatusFunc func(orderNumber string, status domain.Status)

// Notifier guards the status callback shared by its owner and the reader
// loop.
type Notifier struct {
	mu sync.Mutex
	fn StatusFunc
}

func NewNotifier(fn StatusFunc) *Notifier {
	return &Notifier{fn: fn}
}

// Set replaces the callback. A nil fn drops events.
func (n *Notifier) Set(fn StatusFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fn = fn
}

// Notify invokes the callback under the lock. A panic inside the callback
// is recovered and returned as an error.
func (n *Notifier) Notify(orderNumber string, status domain.Status) (err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fn == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("status callback panicked: %v", r)
		}
	}()

	n.fn(orderNumber, status)
	return nil
}
