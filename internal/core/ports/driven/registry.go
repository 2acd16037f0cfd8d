package driven

import (
	"context"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

// AdapterFactory constructs a SourceAdapter from a connector's persisted
// configuration values.
type AdapterFactory func(ctx context.Context, config map[string]any) (SourceAdapter, error)

// AdapterRegistry resolves a service_type string to the factory that builds
// its SourceAdapter, and exposes default configuration without requiring an
// instance.
type AdapterRegistry interface {
	// Register adds factory under serviceType, overwriting any existing
	// registration.
	Register(serviceType string, factory AdapterFactory)

	// Build constructs a SourceAdapter for serviceType. Returns
	// domain.ErrServiceTypeNotSupported if serviceType is unregistered.
	Build(ctx context.Context, serviceType string, config map[string]any) (SourceAdapter, error)

	// DefaultConfiguration returns the registered adapter's default
	// configuration descriptor, or (nil, false) if serviceType is unknown.
	DefaultConfiguration(serviceType string) (map[string]domain.ConfigOption, bool)

	// SupportedTypes returns every registered service_type.
	SupportedTypes() []string
}
