package notify

import "sync"

// Mock is a Notifier test double that records every call.
type Mock struct {
	mu            sync.Mutex
	notifications []Notification
	closed        []uint32
	lastID        uint32
	err           error
}

// NewMock creates a Mock that succeeds and hands out IDs 1, 2, 3...
func NewMock() *Mock {
	return &Mock{}
}

// Notify records n. A replacing notification keeps the replaced ID.
func (m *Mock) Notify(n Notification) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, n)
	if m.err != nil {
		return 0, m.err
	}
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	m.lastID++
	return m.lastID, nil
}

// Close records id.
func (m *Mock) Close(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, id)
	return nil
}

// Test helpers

// SetError makes subsequent Notify calls fail with err; nil restores success.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Notifications returns a copy of all recorded notifications.
func (m *Mock) Notifications() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.notifications...)
}

// Closed returns the IDs passed to Close.
func (m *Mock) Closed() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint32(nil), m.closed...)
}

// Verify Mock implements Notifier at compile time.
var _ Notifier = (*Mock)(nil)
