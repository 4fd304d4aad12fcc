package adapters

import (
	"strings"

	"github.com/smallbiznis/paybridge/internal/platform/domain"
)

type Registry struct {
	factories map[string]domain.AdapterFactory
	order     []string
}

func NewRegistry(factories ...domain.AdapterFactory) *Registry {
	registry := &Registry{factories: map[string]domain.AdapterFactory{}}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		platform := strings.ToLower(strings.TrimSpace(factory.Platform()))
		if platform == "" {
			continue
		}
		if _, exists := registry.factories[platform]; !exists {
			registry.order = append(registry.order, platform)
		}
		registry.factories[platform] = factory
	}
	return registry
}

func (r *Registry) ProviderExists(platform string) bool {
	if r == nil {
		return false
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	_, ok := r.factories[platform]
	return ok
}

func (r *Registry) NewAdapter(platform string, cfg domain.AdapterConfig) (domain.Adapter, error) {
	if r == nil {
		return nil, domain.ErrPlatformNotFound
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	factory, ok := r.factories[platform]
	if !ok {
		return nil, domain.ErrPlatformNotFound
	}
	return factory.NewAdapter(cfg)
}

// Platforms lists registered platform ids in registration order.
func (r *Registry) Platforms() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
