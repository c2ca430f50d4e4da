package serial

import (
	"errors"
	"sync"

	"github.com/YelzhanWeb/orderbridge/internal/domain"
)

const defaultQueueSize = 64

// ErrChannelClosed is returned by Submit once the dispatch channel can no
// longer deliver to the writer.
var ErrChannelClosed = errors.New("dispatch channel closed")

// Dispatcher is the multi-producer side of the queue feeding the writer
// loop. Submit may be called from any goroutine.
type Dispatcher struct {
	queue   chan Message
	closing chan struct{}
	stopped chan struct{}

	mu          sync.RWMutex
	closed      bool
	closingOnce sync.Once
	stopOnce    sync.Once
}

func NewDispatcher(size int) *Dispatcher {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Dispatcher{
		queue:   make(chan Message, size),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Submit queues the new_order message for o. It returns as soon as the
// message is buffered and blocks only while the buffer is full. A blocked
// Submit is released with ErrChannelClosed by Close or by the writer
// exiting.
func (d *Dispatcher) Submit(o domain.Order) error {
	msg := NewDispatchMessage(o)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrChannelClosed
	}

	select {
	case <-d.closing:
		return ErrChannelClosed
	case <-d.stopped:
		return ErrChannelClosed
	default:
	}

	select {
	case d.queue <- msg:
		return nil
	case <-d.closing:
		return ErrChannelClosed
	case <-d.stopped:
		return ErrChannelClosed
	}
}

// Close drops the producing side. The writer drains what is already
// queued and then exits. Close is idempotent.
func (d *Dispatcher) Close() {
	// Producers waiting on a full queue hold the read lock.
	d.closingOnce.Do(func() { close(d.closing) })

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}

// stop is called by the writer when it exits for any reason, releasing
// producers blocked on a full buffer.
func (d *Dispatcher) stop() {
	d.stopOnce.Do(func() { close(d.stopped) })
}
