package charging

import (
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

type registration struct {
	name    string
	factory Factory
}

// Registry holds charger factories in registration order, keyed by unique name.
// Extensions register before the first arbiter initializes; later registrations are
// accepted but only reach arbiters initialized afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
	byName  map[string]int
	sealed  bool
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a factory to the process-wide registry.
func Register(name string, factory Factory) bool {
	return defaultRegistry.Register(name, factory)
}

// SetLogger sets the logger used for registration messages. Nil uses slog.Default().
func (r *Registry) SetLogger(l *slog.Logger) {
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Register adds a named factory. Duplicate names, nil factories and factories already
// registered under another name are blocked with a warning; Register returns false for them.
func (r *Registry) Register(name string, factory Factory) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" || factory == nil {
		r.log().Warn("invalid charger factory blocked", "name", name, "nil_factory", factory == nil)
		return false
	}
	if _, exists := r.byName[name]; exists {
		r.log().Warn("duplicate charger factory blocked", "name", name)
		return false
	}
	for _, e := range r.entries {
		if sameFactory(e.factory, factory) {
			r.log().Warn("duplicate charger factory blocked", "name", name, "registered_as", e.name)
			return false
		}
	}

	r.byName[name] = len(r.entries)
	r.entries = append(r.entries, registration{name: name, factory: factory})

	if r.sealed {
		r.log().Warn("late charger registration; only arbiters initialized from now on will use it", "name", name)
	} else {
		r.log().Info("received charger factory", "name", name)
	}
	return true
}

// sameFactory reports whether a and b are the identical factory value.
// Function factories are not comparable and are deduplicated by name only.
func sameFactory(a, b Factory) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}

// snapshot returns a copy of the entries and marks the registry as read.
func (r *Registry) snapshot() []registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed = true
	out := make([]registration, len(r.entries))
	copy(out, r.entries)
	return out
}

// Sealed reports whether any arbiter has initialized from this registry.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Len returns the number of registered factories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// Suggest returns registered names close to name, best match first.
func (r *Registry) Suggest(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type candidate struct {
		name string
		dist int
	}
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil
	}

	var cands []candidate
	for _, e := range r.entries {
		target := strings.ToLower(e.name)
		if strings.HasPrefix(target, query) {
			cands = append(cands, candidate{name: e.name, dist: 0})
			continue
		}
		dist := levenshtein.ComputeDistance(query, target)
		if dist > suggestLimit(len(target)) {
			continue
		}
		cands = append(cands, candidate{name: e.name, dist: dist})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].dist < cands[j].dist
	})

	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// Reset clears all registrations and the sealed flag. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.byName = make(map[string]int)
	r.sealed = false
}
