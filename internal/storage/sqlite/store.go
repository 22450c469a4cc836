// Package sqlite provides a SQLite implementation of the storage.DeviceStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jwulff/sunrise-go/internal/storage"

	_ "modernc.org/sqlite"
)

const deviceColumns = `id, ip, name, type, created_at, last_seen`

// Store is a SQLite implementation of storage.DeviceStore.
type Store struct {
	db *sql.DB
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore() (*Store, error) {
	return newStore(":memory:")
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

func newStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(row scanner) (*storage.Device, error) {
	var device storage.Device
	var name sql.NullString
	var lastSeen sql.NullTime
	if err := row.Scan(&device.ID, &device.IP, &name, &device.Type, &device.CreatedAt, &lastSeen); err != nil {
		return nil, err
	}
	device.Name = name.String
	device.LastSeen = lastSeen.Time
	return &device, nil
}

func (s *Store) getDeviceWhere(ctx context.Context, column, value string) (*storage.Device, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE `+column+` = ?`, value)
	device, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{Resource: "device", ID: value}
	}
	if err != nil {
		return nil, err
	}
	return device, nil
}

func (s *Store) SaveDevice(ctx context.Context, device *storage.Device) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO devices (id, ip, name, type, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
	`, device.ID, device.IP, device.Name, device.Type, device.CreatedAt, device.LastSeen)
	return err
}

func (s *Store) GetDevice(ctx context.Context, id string) (*storage.Device, error) {
	return s.getDeviceWhere(ctx, "id", id)
}

func (s *Store) GetDeviceByName(ctx context.Context, name string) (*storage.Device, error) {
	return s.getDeviceWhere(ctx, "name", name)
}

func (s *Store) GetDeviceByIP(ctx context.Context, ip string) (*storage.Device, error) {
	return s.getDeviceWhere(ctx, "ip", ip)
}

func (s *Store) GetDevices(ctx context.Context) ([]*storage.Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+deviceColumns+` FROM devices ORDER BY name, ip
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*storage.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

func (s *Store) DeleteDevice(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound{Resource: "device", ID: id}
	}
	return nil
}

// RecordSeen inserts a device for a new IP or refreshes the known one.
// An empty name keeps the stored name.
func (s *Store) RecordSeen(ctx context.Context, ip, name, deviceType string, seen time.Time) (*storage.Device, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	device, err := scanDevice(tx.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE ip = ?`, ip))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		device = storage.NewDevice(ip, name, deviceType)
		device.CreatedAt = seen
		device.LastSeen = seen
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO devices (id, ip, name, type, created_at, last_seen)
			VALUES (?, ?, ?, ?, ?, ?)
		`, device.ID, device.IP, device.Name, device.Type, device.CreatedAt, device.LastSeen); err != nil {
			return nil, fmt.Errorf("insert device %s: %w", ip, err)
		}
	case err != nil:
		return nil, err
	default:
		if name != "" {
			device.Name = name
		}
		device.Type = deviceType
		device.LastSeen = seen
		if _, err := tx.ExecContext(ctx, `
			UPDATE devices SET name = ?, type = ?, last_seen = ? WHERE id = ?
		`, device.Name, device.Type, device.LastSeen, device.ID); err != nil {
			return nil, fmt.Errorf("update device %s: %w", ip, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return device, nil
}

// Verify interface compliance
var _ storage.DeviceStore = (*Store)(nil)
