package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// DefaultFragmentRegistry is a simple, ordered, in-memory registry.
// Fragments are composed in registration order, which is the tie-break for
// any ordering-sensitive firewall engine downstream.
// Register panics on duplicate provider IDs to catch wiring mistakes at startup.
type DefaultFragmentRegistry struct {
	providers []FragmentProvider
	index     map[string]struct{}
}

// NewDefaultFragmentRegistry returns an empty registry ready for registration.
func NewDefaultFragmentRegistry() *DefaultFragmentRegistry {
	return &DefaultFragmentRegistry{
		index: make(map[string]struct{}),
	}
}

// Register adds p to the registry. Panics if the same ID is registered twice.
func (r *DefaultFragmentRegistry) Register(p FragmentProvider) {
	if _, exists := r.index[p.ID()]; exists {
		panic(fmt.Sprintf("duplicate fragment provider ID: %q", p.ID()))
	}
	r.providers = append(r.providers, p)
	r.index[p.ID()] = struct{}{}
}

// All returns all registered providers in registration order.
func (r *DefaultFragmentRegistry) All() []FragmentProvider {
	return r.providers
}

// Fragments returns every provider's fragment in registration order.
func (r *DefaultFragmentRegistry) Fragments() []models.RuleFragment {
	out := make([]models.RuleFragment, 0, len(r.providers))
	for _, p := range r.providers {
		f := p.Fragment()
		if f.Name == "" {
			f.Name = p.ID()
		}
		out = append(out, f)
	}
	return out
}

// Compose composes all registered fragments. See Compose.
func (r *DefaultFragmentRegistry) Compose() (models.RuleSet, error) {
	return Compose(r.Fragments())
}
