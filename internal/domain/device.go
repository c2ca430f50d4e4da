package domain

import (
	"errors"
	"time"
)

// Device represents the physically attached order device
type Device struct {
	ID               int
	Port             string
	Status           DeviceStatus
	LastSeen         time.Time
	OrdersDispatched int
	StatusEvents     int
	CreatedAt        time.Time
}

type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
)

// NewDevice creates an online device record for port
func NewDevice(port string) (*Device, error) {
	if port == "" {
		return nil, errors.New("device port is required")
	}

	now := time.Now().UTC()
	return &Device{
		Port:      port,
		Status:    DeviceStatusOnline,
		LastSeen:  now,
		CreatedAt: now,
	}, nil
}

// SetOffline marks the device as offline
func (d *Device) SetOffline() {
	d.Status = DeviceStatusOffline
}

// IsOnline checks if the device is considered online based on the last frame seen
func (d *Device) IsOnline(timeout time.Duration) bool {
	if d.Status == DeviceStatusOffline {
		return false
	}
	return time.Since(d.LastSeen) <= timeout
}
