//go:build !linux

package mpris

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/nowplaying/internal/media"
)

// Options configures a Watcher.
type Options struct {
	BufferSize  int
	LocalCovers bool
}

// Watcher is a no-op on non-Linux platforms.
type Watcher struct{}

// NewWatcher returns a watcher that cannot subscribe.
func NewWatcher(_ Options, _ *logrus.Entry) *Watcher {
	return &Watcher{}
}

// Subscribe always fails with ErrUnsupported.
func (w *Watcher) Subscribe(_ context.Context) (<-chan media.Event, error) {
	return nil, ErrUnsupported
}
