package domain

import (
	"testing"
	"time"
)

func TestDevice(t *testing.T) {
	if _, err := NewDevice(""); err == nil {
		t.Error("expected error for empty port")
	}

	d, err := NewDevice("/dev/ttyACM0")
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	if !d.IsOnline(time.Minute) {
		t.Error("new device should be online")
	}

	d.LastSeen = time.Now().Add(-2 * time.Minute)
	if d.IsOnline(time.Minute) {
		t.Error("stale device should be offline")
	}

	d.LastSeen = time.Now()
	d.SetOffline()
	if d.IsOnline(time.Minute) || d.Status != DeviceStatusOffline {
		t.Error("SetOffline did not take effect")
	}
}
