package storage

import (
	"maps"
	"sync"
	"time"

	"github.com/eugenenazirov/ovn-options/internal/schema"
)

// Snapshot is the configuration in effect at a point in time.
type Snapshot struct {
	Config    schema.ResolvedConfig
	Overrides map[string]string
	UpdatedAt time.Time
}

// Storage provides access to the current option overrides and their resolution.
type Storage interface {
	Definitions() schema.Definitions
	Current() Snapshot
	Apply(overrides map[string]string) (Snapshot, []string, error)
}

// MemoryStorage keeps the current snapshot in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	defs  schema.Definitions
	clock func() time.Time

	mu      sync.RWMutex
	current Snapshot
}

// Option configures MemoryStorage.
type Option func(*MemoryStorage)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// NewMemoryStorage resolves initial against defs and stores the result.
func NewMemoryStorage(defs schema.Definitions, initial map[string]string, opts ...Option) (*MemoryStorage, error) {
	s := &MemoryStorage{
		defs: defs,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := schema.Resolve(defs, initial)
	if err != nil {
		return nil, err
	}
	s.current = Snapshot{
		Config:    cfg,
		Overrides: maps.Clone(nonNil(initial)),
		UpdatedAt: s.clock(),
	}
	return s, nil
}

// Definitions returns the option definitions the storage resolves against.
func (s *MemoryStorage) Definitions() schema.Definitions {
	return s.defs
}

// Current returns the snapshot in effect. The overrides map is a copy.
func (s *MemoryStorage) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneSnapshot(s.current)
}

// Apply replaces the overrides and returns the new snapshot together with the
// options whose value changed. On error the previous snapshot stays in effect.
func (s *MemoryStorage) Apply(overrides map[string]string) (Snapshot, []string, error) {
	cfg, err := schema.Resolve(s.defs, overrides)
	if err != nil {
		return Snapshot{}, nil, err
	}

	next := Snapshot{
		Config:    cfg,
		Overrides: maps.Clone(nonNil(overrides)),
		UpdatedAt: s.clock(),
	}

	s.mu.Lock()
	changed := cfg.Changed(s.current.Config)
	s.current = next
	s.mu.Unlock()

	return cloneSnapshot(next), changed, nil
}

func cloneSnapshot(src Snapshot) Snapshot {
	src.Overrides = maps.Clone(src.Overrides)
	return src
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
