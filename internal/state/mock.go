package state

import (
	"sort"
	"sync"
	"time"
)

// Mock is a test double for Manager.
type Mock struct {
	mu      sync.Mutex
	sources map[string]Source
	err     error
	closed  bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{sources: make(map[string]Source)}
}

func (m *Mock) RegisterSource(name string, defaultEnabled bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	s, ok := m.sources[name]
	if !ok {
		s = Source{Name: name, Enabled: defaultEnabled, FirstSeen: time.Now()}
		m.sources[name] = s
	}
	return s.Enabled, nil
}

func (m *Mock) Sources() ([]Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Source, 0, len(m.sources))
	for _, s := range m.sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Mock) SetSourceEnabled(name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[name]
	if !ok {
		return ErrUnknownSource
	}
	s.Enabled = enabled
	m.sources[name] = s
	return nil
}

func (m *Mock) ClearSources() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.sources))
	m.sources = make(map[string]Source)
	return n, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// SetError makes RegisterSource fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
