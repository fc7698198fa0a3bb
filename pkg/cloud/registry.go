package cloud

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ogulcanaydogan/cdt-guardian/pkg/model"
)

// DefaultProvider is used for accounts that do not name a provider.
const DefaultProvider = "aliyun"

// Registry maps provider names to gateway factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// List returns the registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates a gateway for account using its provider's factory.
func (r *Registry) Open(ctx context.Context, account model.Account) (Gateway, error) {
	name := account.Provider
	if name == "" {
		name = DefaultProvider
	}

	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider %q not found", name)
	}

	gw, err := f(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("open %s gateway: %w", name, err)
	}
	return gw, nil
}
