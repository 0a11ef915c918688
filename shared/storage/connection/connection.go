// Package connection owns the lazily established client handle of a store.
//
// A Manager is created once per store and handed to every operation that
// needs the handle. The first caller opens the connection; later callers
// reuse it. Failures are logged and never returned from EnsureConnected,
// so a missing or broken database shows up as ErrNotConnected on the
// first query instead of at startup.
package connection

import (
	"context"
	"log/slog"
	"sync"

	internal_errors "github.com/wam-dev/threads/shared/errors"
	"github.com/wam-dev/threads/shared/logger"
)

// OpenFunc dials the store described by dsn.
type OpenFunc[T any] func(ctx context.Context, dsn string) (T, error)

type Manager[T any] struct {
	name string
	dsn  string
	open OpenFunc[T]

	mu        sync.Mutex
	conn      T
	connected bool
}

func New[T any](name, dsn string, open OpenFunc[T]) *Manager[T] {
	return &Manager[T]{name: name, dsn: dsn, open: open}
}

func (m *Manager[T]) log() *slog.Logger {
	return logger.Component("connection").With("store", m.name)
}

// EnsureConnected opens the connection if it is not open yet.
// The mutex is held across open so concurrent first calls dial once.
func (m *Manager[T]) EnsureConnected(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dsn == "" {
		m.log().Warn("connection string not found")
		return
	}
	if m.connected {
		m.log().Debug("already connected")
		return
	}

	conn, err := m.open(ctx, m.dsn)
	if err != nil {
		m.log().Error("error connecting", "error", err)
		return
	}
	m.conn = conn
	m.connected = true
	m.log().Info("connected")
}

// Conn returns the open handle, connecting first if needed.
func (m *Manager[T]) Conn(ctx context.Context) (T, error) {
	m.EnsureConnected(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		var zero T
		return zero, internal_errors.ErrNotConnected
	}
	return m.conn, nil
}

func (m *Manager[T]) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Close releases the handle with closeFn. Closing a manager that never
// connected is a no-op.
func (m *Manager[T]) Close(closeFn func(T) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil
	}
	var zero T
	conn := m.conn
	m.conn = zero
	m.connected = false
	return closeFn(conn)
}
