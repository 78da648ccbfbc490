package prompts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Snapshot is an immutable view of the loaded prompts
type Snapshot struct {
	definitions []PromptDefinition
}

// Definitions returns the definitions in load order. Callers must not modify the slice.
func (s *Snapshot) Definitions() []PromptDefinition {
	return s.definitions
}

// Len returns the number of definitions
func (s *Snapshot) Len() int {
	return len(s.definitions)
}

// Names returns the prompt names in load order
func (s *Snapshot) Names() []string {
	names := make([]string, len(s.definitions))
	for i, d := range s.definitions {
		names[i] = d.Name
	}
	return names
}

// FindByName returns the definition with the given name
func (s *Snapshot) FindByName(name string) (PromptDefinition, bool) {
	for _, d := range s.definitions {
		if d.Name == name {
			return d, true
		}
	}
	return PromptDefinition{}, false
}

// InstallListener is notified after a snapshot becomes current
type InstallListener func(*Snapshot)

// Registry holds the current snapshot of prompt definitions. Readers never
// block; installs replace the snapshot wholesale.
type Registry struct {
	loader   Loader
	reserved map[string]struct{}

	current atomic.Pointer[Snapshot]
	ready   atomic.Bool

	installMu sync.Mutex
	reloads   singleflight.Group

	listenersMu sync.RWMutex
	listeners   []InstallListener
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithReservedNames rejects prompts whose names clash with built-in tools
func WithReservedNames(names ...string) RegistryOption {
	return func(r *Registry) {
		for _, n := range names {
			r.reserved[n] = struct{}{}
		}
	}
}

// NewRegistry creates an empty registry backed by the given loader
func NewRegistry(loader Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader:   loader,
		reserved: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.current.Store(&Snapshot{})
	return r
}

// OnInstall registers a listener called after each snapshot install
func (r *Registry) OnInstall(fn InstallListener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Current returns the latest installed snapshot
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Ready reports whether at least one snapshot has been installed
func (r *Registry) Ready() bool {
	return r.ready.Load()
}

// FindByName looks up a prompt in the current snapshot
func (r *Registry) FindByName(name string) (PromptDefinition, bool) {
	return r.Current().FindByName(name)
}

// Load validates the candidates and installs the survivors as the current
// snapshot. Invalid or duplicate definitions are skipped with a warning;
// the first definition with a given name wins.
func (r *Registry) Load(candidates []PromptDefinition) *Snapshot {
	definitions := make([]PromptDefinition, 0, len(candidates))
	seen := make(map[string]string, len(candidates))

	for _, c := range candidates {
		if err := r.validate(c); err != nil {
			slog.Warn("Skipping prompt", "file", c.Source, "name", c.Name, "error", err)
			continue
		}
		if prev, ok := seen[c.Name]; ok {
			slog.Warn("Skipping duplicate prompt", "name", c.Name, "file", c.Source, "first", prev)
			continue
		}
		seen[c.Name] = c.Source

		def := c.withDefaults()
		definitions = append(definitions, def)
		slog.Debug("Loaded prompt", "name", def.Name, "file", def.Source)
	}

	snapshot := &Snapshot{definitions: definitions}
	r.install(snapshot)

	slog.Info("Prompts loaded", "count", snapshot.Len(), "skipped", len(candidates)-snapshot.Len())
	return snapshot
}

// Reload re-invokes the loader and installs the result. Concurrent callers
// share a single load. On loader failure the current snapshot is kept.
func (r *Registry) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, _ := r.reloads.Do("reload", func() (any, error) {
		candidates, err := r.loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
		return r.Load(candidates), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (r *Registry) validate(d PromptDefinition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, ok := r.reserved[d.Name]; ok {
		return fmt.Errorf("%w: %q", ErrReservedName, d.Name)
	}
	return nil
}

func (r *Registry) install(s *Snapshot) {
	r.installMu.Lock()
	defer r.installMu.Unlock()

	r.current.Store(s)
	r.ready.Store(true)

	r.listenersMu.RLock()
	listeners := append([]InstallListener(nil), r.listeners...)
	r.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(s)
	}
}

