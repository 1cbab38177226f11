package storage

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/eugenenazirov/ovn-options/internal/schema"
)

func newStorage(t *testing.T, initial map[string]string, opts ...Option) *MemoryStorage {
	t.Helper()

	defs, err := schema.Load()
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	store, err := NewMemoryStorage(defs, initial, opts...)
	if err != nil {
		t.Fatalf("NewMemoryStorage returned error: %v", err)
	}
	return store
}

func TestNewMemoryStorageResolvesDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	store := newStorage(t, nil, WithClock(func() time.Time { return now }))

	snap := store.Current()
	if got := snap.Config.String(schema.OptionSource); got != "distro" {
		t.Fatalf("expected default source, got %q", got)
	}
	if len(snap.Overrides) != 0 {
		t.Fatalf("expected no overrides, got %v", snap.Overrides)
	}
	if !snap.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %s, got %s", now, snap.UpdatedAt)
	}

	// ensure mutation safety
	snap.Overrides["source"] = "ppa:mutated"
	if again := store.Current(); len(again.Overrides) != 0 {
		t.Fatalf("expected defensive copy, got %v", again.Overrides)
	}
}

func TestNewMemoryStorageRejectsUnknownInitialOverrides(t *testing.T) {
	t.Parallel()

	defs, err := schema.Load()
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	_, err = NewMemoryStorage(defs, map[string]string{"bogus": "1"})
	var unknown *schema.UnknownOptionError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownOptionError, got %v", err)
	}
}

func TestApplyReplacesSnapshot(t *testing.T) {
	t.Parallel()

	store := newStorage(t, map[string]string{schema.OptionSource: "cloud:bionic-rocky"})

	snap, changed, err := store.Apply(map[string]string{schema.OptionOVNBridgeMappings: "physnet1:br-provider"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := snap.Config.String(schema.OptionSource); got != "distro" {
		t.Fatalf("expected source to fall back to default, got %q", got)
	}
	want := []string{schema.OptionSource, schema.OptionOVNBridgeMappings}
	if !slices.Equal(changed, want) {
		t.Fatalf("expected changed %v, got %v", want, changed)
	}
	if !store.Current().Config.Equal(snap.Config) {
		t.Fatalf("expected stored snapshot to match returned snapshot")
	}
}

func TestApplyKeepsPreviousSnapshotOnError(t *testing.T) {
	t.Parallel()

	store := newStorage(t, map[string]string{schema.OptionSource: "ppa:custom/ppa"})
	before := store.Current()

	_, _, err := store.Apply(map[string]string{"unknown-key": "x"})
	var unknown *schema.UnknownOptionError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownOptionError, got %v", err)
	}

	after := store.Current()
	if !after.Config.Equal(before.Config) || after.Overrides[schema.OptionSource] != "ppa:custom/ppa" {
		t.Fatalf("expected previous snapshot to remain, got %v", after.Config.Values())
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	store := newStorage(t, nil)
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			overrides := map[string]string{
				schema.OptionOVNBridgeMappings: fmt.Sprintf("physnet%d:br-provider", offset),
			}
			if _, _, err := store.Apply(overrides); err != nil {
				t.Errorf("Apply failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if snap := store.Current(); snap.Config.Len() != 3 {
				t.Errorf("expected complete snapshot, got %v", snap.Config.Values())
			}
		}()
	}

	wg.Wait()

	if got := store.Current().Config.Len(); got != 3 {
		t.Fatalf("expected 3 resolved options, got %d", got)
	}
}
