package state

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	RegisterSource(name string, defaultEnabled bool) (bool, error)
	Sources() ([]Source, error)
	SetSourceEnabled(name string, enabled bool) error
	ClearSources() (int64, error)
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
