package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	goserial "go.bug.st/serial"
)

const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 1000 * time.Millisecond
)

// ErrReadTimeout is returned by the read half when the read timeout
// elapsed without data. It is an expected condition.
var ErrReadTimeout = errors.New("serial read timeout")

// TransportOpenError reports why a port could not be opened.
type TransportOpenError struct {
	Port string
	Err  error
}

func (e *TransportOpenError) Error() string {
	return fmt.Sprintf("open serial port %s: %v", e.Port, e.Err)
}

func (e *TransportOpenError) Unwrap() error { return e.Err }

// Busy reports whether another process holds the port.
func (e *TransportOpenError) Busy() bool {
	var pe *goserial.PortError
	return errors.As(e.Err, &pe) && pe.Code() == goserial.PortBusy
}

// NotFound reports whether the port does not exist.
func (e *TransportOpenError) NotFound() bool {
	var pe *goserial.PortError
	return errors.As(e.Err, &pe) && pe.Code() == goserial.PortNotFound
}

// Transport owns an open serial connection. Its read and write halves may
// be driven from two goroutines at once without a shared lock.
type Transport struct {
	name string
	port goserial.Port
}

// Open opens name with 8N1 framing at baud and a bounded read timeout.
func Open(name string, baud int, readTimeout time.Duration) (*Transport, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	mode := &goserial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}

	port, err := goserial.Open(name, mode)
	if err != nil {
		return nil, &TransportOpenError{Port: name, Err: err}
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, &TransportOpenError{Port: name, Err: err}
	}

	return &Transport{name: name, port: port}, nil
}

func (t *Transport) Name() string { return t.name }

// Reader returns the read half. A read that times out yields ErrReadTimeout.
func (t *Transport) Reader() io.Reader { return readHalf{r: t.port} }

// Writer returns the write half.
func (t *Transport) Writer() io.Writer { return writeHalf{w: t.port} }

func (t *Transport) Close() error {
	return t.port.Close()
}

type readHalf struct {
	r io.Reader
}

func (h readHalf) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if n == 0 && err == nil {
		// go.bug.st/serial reports an elapsed timeout as an empty read
		return 0, ErrReadTimeout
	}
	return n, err
}

type writeHalf struct {
	w io.Writer
}

func (h writeHalf) Write(p []byte) (int, error) {
	return h.w.Write(p)
}
