// Package driver maps configured driver types to feed driver builders.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"hatchwatch/internal/config"
	"hatchwatch/pkg/hatchwatch"
)

// BuilderFunc builds one feed driver from validated configuration.
type BuilderFunc func(ctx context.Context, cfg config.Config, logger *slog.Logger) (hatchwatch.Driver, error)

// Descriptor binds one driver type token to its builder.
type Descriptor struct {
	// Type is the driver type token from configuration (for example "discord").
	Type string
	// Builder constructs one driver instance for this type.
	Builder BuilderFunc
}

// Registry maps driver types to builders.
type Registry struct {
	entries map[string]BuilderFunc
	types   []string
}

// NewRegistry creates one immutable driver registry from descriptors.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	entries := make(map[string]BuilderFunc, len(descriptors))
	types := make([]string, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if descriptor.Type == "" {
			return nil, fmt.Errorf("new registry: empty descriptor type")
		}
		if descriptor.Builder == nil {
			return nil, fmt.Errorf("new registry type %s: nil builder", descriptor.Type)
		}
		if _, exists := entries[descriptor.Type]; exists {
			return nil, fmt.Errorf("new registry type %s: %w", descriptor.Type, hatchwatch.ErrDriverAlreadyRegistered)
		}

		entries[descriptor.Type] = descriptor.Builder
		types = append(types, descriptor.Type)
	}
	sort.Strings(types)

	return &Registry{
		entries: entries,
		types:   types,
	}, nil
}

// Types returns all registered driver types in deterministic sorted order.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}

	types := make([]string, len(r.types))
	copy(types, r.types)

	return types
}

// Build constructs the driver selected by cfg.Driver.
func (r *Registry) Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (hatchwatch.Driver, error) {
	if r == nil {
		return nil, fmt.Errorf("build driver: nil registry")
	}

	builder, exists := r.entries[cfg.Driver]
	if !exists {
		return nil, fmt.Errorf("build driver type %s: %w", cfg.Driver, hatchwatch.ErrUnknownDriver)
	}

	built, err := builder(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build driver type %s: %w", cfg.Driver, err)
	}
	if built == nil {
		return nil, fmt.Errorf("build driver type %s: nil driver", cfg.Driver)
	}

	return built, nil
}
