// Package storage provides the device registry used to remember Pixoo
// displays found on the local network.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DeviceStore is the interface for persistent device storage.
type DeviceStore interface {
	SaveDevice(ctx context.Context, device *Device) error
	GetDevice(ctx context.Context, id string) (*Device, error)
	GetDeviceByName(ctx context.Context, name string) (*Device, error)
	GetDeviceByIP(ctx context.Context, ip string) (*Device, error)
	GetDevices(ctx context.Context) ([]*Device, error)
	DeleteDevice(ctx context.Context, id string) error

	// RecordSeen registers a device found by a scan, keeping the identity
	// of a known IP and refreshing its LastSeen time.
	RecordSeen(ctx context.Context, ip, name, deviceType string, seen time.Time) (*Device, error)

	Close() error
}

// DeviceTypePixoo64 is the only display type discovered today.
const DeviceTypePixoo64 = "pixoo64"

// Device represents a stored Pixoo device.
type Device struct {
	ID        string
	IP        string
	Name      string
	Type      string
	CreatedAt time.Time
	LastSeen  time.Time
}

// NewDevice creates a new device record with a random ID.
func NewDevice(ip, name, deviceType string) *Device {
	now := time.Now()
	return &Device{
		ID:        uuid.NewString(),
		IP:        ip,
		Name:      name,
		Type:      deviceType,
		CreatedAt: now,
		LastSeen:  now,
	}
}

// ErrNotFound is returned when a record is not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is, or wraps, a not found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
