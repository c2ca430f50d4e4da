package serial

import (
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
)

const (
	defaultReadBufferSize = 1024
	defaultErrorBackoff   = time.Second
)

// Option configures a Bridge.
type Option func(*options)

type options struct {
	logger         logger.Logger
	queueSize      int
	readBufferSize int
	errorBackoff   time.Duration
	maxFrameSize   int
	onDispatched   func(orderNumber string)
}

func defaultOptions() *options {
	return &options{
		logger:         logger.Nop(),
		queueSize:      defaultQueueSize,
		readBufferSize: defaultReadBufferSize,
		errorBackoff:   defaultErrorBackoff,
		maxFrameSize:   maxFrameSize,
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithQueueSize sets how many dispatches may be buffered before Submit blocks.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

func WithReadBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readBufferSize = n
		}
	}
}

// WithErrorBackoff sets the pause after a non-timeout read error.
func WithErrorBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.errorBackoff = d
		}
	}
}

func WithMaxFrameSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFrameSize = n
		}
	}
}

// WithDispatchHook registers fn to run on the writer goroutine after each
// frame is fully written.
func WithDispatchHook(fn func(orderNumber string)) Option {
	return func(o *options) {
		o.onDispatched = fn
	}
}
