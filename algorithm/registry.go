package algorithm

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/spikekit/errors"
)

// Namespace is the path prefix under which strategy identifiers resolve.
const Namespace = "algorithms"

// Registry manages named strategy factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Path maps a strategy identifier onto its registry key.
func Path(name string) string {
	return path.Join(Namespace, name)
}

// validName rejects identifiers that would escape the namespace.
func validName(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return false
	}
	return true
}

// Register registers a named factory. Registering an existing name
// replaces it.
func (r *Registry) Register(name string, factory Factory) error {
	if !validName(name) {
		return errors.InvalidArgument("algorithm", "name must be a single path element")
	}
	if factory == nil {
		return errors.InvalidArgument("algorithm", "factory is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[Path(name)] = factory
	return nil
}

// Has reports whether name resolves to a registered factory.
func (r *Registry) Has(name string) bool {
	if !validName(name) {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[Path(name)]
	return ok
}

// Resolve creates the strategy registered under name.
// An unknown name fails with CONFIGURATION_ERROR naming the identifier.
func (r *Registry) Resolve(name string, p Params) (Strategy, error) {
	if !validName(name) {
		return nil, errors.UnknownStrategy(name)
	}
	r.mu.RLock()
	factory, ok := r.factories[Path(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownStrategy(name)
	}
	return factory(p)
}

// List returns sorted names of all registered factories.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for key := range r.factories {
		names = append(names, strings.TrimPrefix(key, Namespace+"/"))
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry holding the strategies shipped with spikekit.
func Builtin() *Registry {
	r := NewRegistry()
	_ = r.Register(NameDefault, newLocalMaxima)
	_ = r.Register(NameDistance, newDistance)
	_ = r.Register(NameThreshold, newThreshold)
	return r
}

var defaultRegistry = Builtin()

// Default returns the process-wide registry used by detectors unless they
// are given another one.
func Default() *Registry { return defaultRegistry }

// Register adds a factory to the default registry.
func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// Resolve creates a strategy from the default registry.
func Resolve(name string, p Params) (Strategy, error) {
	return defaultRegistry.Resolve(name, p)
}
