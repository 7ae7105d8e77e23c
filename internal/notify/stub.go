//go:build !linux

package notify

// stubNotifier reports ErrUnavailable on non-Linux platforms.
type stubNotifier struct{}

// New returns a notifier that always fails with ErrUnavailable on non-Linux platforms.
func New(_, _ string) (Notifier, error) {
	return &stubNotifier{}, nil
}

func (s *stubNotifier) Notify(_ Notification) (uint32, error) {
	return 0, ErrUnavailable
}

func (s *stubNotifier) Close(_ uint32) error {
	return nil
}
