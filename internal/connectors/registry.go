package connectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/connectord/internal/connectors/filesystem"
	"github.com/custodia-labs/connectord/internal/connectors/jira"
	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/core/ports/driven"
)

var _ driven.AdapterRegistry = (*Registry)(nil)
var _ domain.ServiceRegistry = (*Registry)(nil)

// Registry maps a service_type string to the factory and default
// configuration of the SourceAdapter that serves it.
type Registry struct {
	mu       sync.RWMutex
	factory  map[string]driven.AdapterFactory
	defaults map[string]map[string]domain.ConfigOption
}

// NewRegistry returns a Registry pre-populated with every adapter this
// build ships: jira and filesystem.
func NewRegistry() *Registry {
	r := &Registry{
		factory:  make(map[string]driven.AdapterFactory),
		defaults: make(map[string]map[string]domain.ConfigOption),
	}
	r.Register(jira.ServiceType, jira.New)
	r.Register("filesystem", func(ctx context.Context, config map[string]any) (driven.SourceAdapter, error) {
		rootPath, _ := config["root_path"].(string)
		return filesystem.New(rootPath), nil
	})
	return r
}

// Register adds factory under serviceType. It builds a throwaway adapter
// instance (background context, empty config) solely to capture its
// default configuration descriptor.
func (r *Registry) Register(serviceType string, factory driven.AdapterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factory[serviceType] = factory

	if adapter, err := factory(context.Background(), map[string]any{}); err == nil {
		r.defaults[serviceType] = adapter.GetDefaultConfiguration()
		_ = adapter.Close()
	}
}

// Build constructs a SourceAdapter for serviceType.
func (r *Registry) Build(ctx context.Context, serviceType string, config map[string]any) (driven.SourceAdapter, error) {
	r.mu.RLock()
	factory, ok := r.factory[serviceType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrServiceTypeNotSupported, serviceType)
	}
	return factory(ctx, config)
}

// DefaultConfiguration returns the registered adapter's default
// configuration descriptor.
func (r *Registry) DefaultConfiguration(serviceType string) (map[string]domain.ConfigOption, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.defaults[serviceType]
	return cfg, ok
}

// SupportedTypes returns every registered service_type.
func (r *Registry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factory))
	for t := range r.factory {
		types = append(types, t)
	}
	return types
}
