package serial

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
)

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, nil }

func TestReadHalf_EmptyReadIsTimeout(t *testing.T) {
	h := readHalf{r: emptyReader{}}

	n, err := h.Read(make([]byte, 8))
	if n != 0 || !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("Read = %d, %v; want 0, ErrReadTimeout", n, err)
	}
	if !isTimeout(err) {
		t.Error("ErrReadTimeout must classify as timeout")
	}
}

func TestReadHalf_PassesDataAndErrors(t *testing.T) {
	h := readHalf{r: bytes.NewReader([]byte("hi"))}

	buf := make([]byte, 8)
	n, err := h.Read(buf)
	if err != nil || string(buf[:n]) != "hi" {
		t.Fatalf("Read = %q, %v", buf[:n], err)
	}

	_, err = h.Read(buf)
	if !errors.Is(err, io.EOF) {
		t.Errorf("second Read err = %v, want EOF", err)
	}
	if isTimeout(err) {
		t.Error("EOF must not classify as timeout")
	}
}

func TestWriteHalf(t *testing.T) {
	var buf bytes.Buffer
	h := writeHalf{w: &buf}

	if _, err := h.Write([]byte("frame\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "frame\n" {
		t.Errorf("written = %q", buf.String())
	}
}

func TestOpen_MissingPort(t *testing.T) {
	name := filepath.Join(t.TempDir(), "ttyUSB-missing")

	tr, err := Open(name, DefaultBaudRate, DefaultReadTimeout)
	if err == nil {
		_ = tr.Close()
		t.Fatal("expected error opening a missing port")
	}

	var openErr *TransportOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("err = %T %v, want *TransportOpenError", err, err)
	}
	if openErr.Port != name {
		t.Errorf("Port = %q, want %q", openErr.Port, name)
	}
	if openErr.Busy() {
		t.Error("missing port reported as busy")
	}
}
