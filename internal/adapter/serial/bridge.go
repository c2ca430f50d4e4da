package serial

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/domain"
)

var ErrAlreadyStarted = errors.New("bridge already started")

// Bridge moves new orders out to the device and status events back in.
//
// The writer goroutine owns the write half and drains the Dispatcher until
// it is closed. The reader goroutine owns the read half and runs until its
// context is cancelled. The two never wait on each other.
type Bridge struct {
	reader     io.Reader
	writer     io.Writer
	dispatcher *Dispatcher
	notifier   *Notifier
	logger     logger.Logger

	readBufferSize int
	errorBackoff   time.Duration
	maxFrameSize   int
	onDispatched   func(orderNumber string)

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewBridge wires the two halves of a transport to a fresh Dispatcher and
// the given notifier.
func NewBridge(r io.Reader, w io.Writer, notifier *Notifier, opts ...Option) *Bridge {
	if r == nil || w == nil {
		panic("serial: bridge needs both transport halves")
	}
	if notifier == nil {
		notifier = NewNotifier(nil)
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Bridge{
		reader:         r,
		writer:         w,
		dispatcher:     NewDispatcher(cfg.queueSize),
		notifier:       notifier,
		logger:         cfg.logger,
		readBufferSize: cfg.readBufferSize,
		errorBackoff:   cfg.errorBackoff,
		maxFrameSize:   cfg.maxFrameSize,
		onDispatched:   cfg.onDispatched,
	}
}

// Dispatcher returns the producing side of the outbound queue.
func (b *Bridge) Dispatcher() *Dispatcher {
	return b.dispatcher
}

// Submit is shorthand for b.Dispatcher().Submit(o).
func (b *Bridge) Submit(o domain.Order) error {
	return b.dispatcher.Submit(o)
}

// Start launches the reader and writer goroutines.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true

	readCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		b.writeLoop()
	}()
	go func() {
		defer b.wg.Done()
		b.readLoop(readCtx)
	}()

	return nil
}

// Close stops accepting dispatches, lets the writer drain, stops the
// reader and waits for both goroutines. The reader notices cancellation
// when its current Read returns.
func (b *Bridge) Close() {
	_ = b.Shutdown(context.Background())
}

// Shutdown is Close with a bound on the wait. When ctx expires first the
// loops are still running and ctx.Err() is returned; closing the transport
// unblocks a write or read stuck on the device.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.dispatcher.Close()

	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) writeLoop() {
	defer b.dispatcher.stop()

	for msg := range b.dispatcher.queue {
		frame, err := EncodeFrame(msg)
		if err != nil {
			b.logger.Error("serial_encode_failed", "Failed to encode order frame", "", map[string]interface{}{
				"order_number": msg.OrderNumber,
			}, err)
			continue
		}

		if err := writeFull(b.writer, frame); err != nil {
			b.logger.Error("serial_write_failed", "Error writing to serial port", "", map[string]interface{}{
				"order_number": msg.OrderNumber,
			}, err)
			continue
		}

		b.logger.Debug("order_dispatched", "Order sent to device", "", map[string]interface{}{
			"order_number": msg.OrderNumber,
			"items":        len(msg.Items),
		})

		if b.onDispatched != nil {
			b.onDispatched(msg.OrderNumber)
		}
	}
}

func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

func (b *Bridge) readLoop(ctx context.Context) {
	buf := make([]byte, b.readBufferSize)
	framer := newLineFramer(b.maxFrameSize)

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := b.reader.Read(buf)
		if n > 0 {
			for _, line := range framer.Push(buf[:n]) {
				b.handleLine(line)
			}
		}

		if err == nil || isTimeout(err) {
			continue
		}

		b.logger.Error("serial_read_failed", "Error reading from serial port", "", nil, err)

		timer := time.NewTimer(b.errorBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (b *Bridge) handleLine(line []byte) {
	ev, err := DecodeStatusLine(line)
	if err != nil {
		b.logger.Debug("serial_frame_dropped", "Ignoring unrecognized device frame", "", map[string]interface{}{
			"reason": err.Error(),
		})
		return
	}

	b.logger.Info("status_update_received", "Received status update from device", "", map[string]interface{}{
		"order_number": ev.OrderNumber,
		"status":       ev.Status,
	})

	if err := b.notifier.Notify(ev.OrderNumber, ev.Status); err != nil {
		b.logger.Error("status_callback_failed", "Status callback failed", "", map[string]interface{}{
			"order_number": ev.OrderNumber,
		}, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, ErrReadTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
