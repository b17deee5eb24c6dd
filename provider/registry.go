package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when no factory is registered under
	// the requested name.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrNotAsync is returned when the named provider does not support
	// non-blocking execution.
	ErrNotAsync = errors.New("provider does not support async execution")
)

var (
	mu        sync.Mutex
	factories = make(map[string]Factory)
	instances = make(map[string]Provider)
)

// Register adds a provider factory to the registry. The factory is not
// invoked until the first Get for the name. Registering a name twice
// replaces the factory and discards any constructed instance.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
	delete(instances, name)
}

// Get returns the provider registered under name, constructing it on first
// use. Construction failures are not memoized: a later Get retries the
// factory.
func Get(name string) (Provider, error) {
	mu.Lock()
	defer mu.Unlock()
	if p, ok := instances[name]; ok {
		return p, nil
	}
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	p, err := f()
	if err != nil {
		return nil, fmt.Errorf("constructing provider %q: %w", name, err)
	}
	instances[name] = p
	return p, nil
}

// GetAsync returns the provider registered under name if it supports
// non-blocking execution.
func GetAsync(name string) (AsyncProvider, error) {
	p, err := Get(name)
	if err != nil {
		return nil, err
	}
	ap, ok := p.(AsyncProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotAsync, name)
	}
	return ap, nil
}

// Names returns the names of all registered providers, sorted.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset discards all constructed instances, keeping the registered
// factories. The next Get per name re-invokes its factory. For testing only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instances = make(map[string]Provider)
}
