package rules

import "github.com/pankaj-dahiya-devops/azure-hub/internal/models"

// FragmentProvider contributes one rule fragment to a policy attachment.
// Providers must be stateless and deterministic: the same provider returns
// an equal fragment on every call. They must never call the Azure SDK or read
// external state; everything they need is passed in at construction.
type FragmentProvider interface {
	// ID returns the unique, stable identifier for this provider (e.g. "aks").
	ID() string

	// Fragment returns the provider's rules. Either list may be empty.
	Fragment() models.RuleFragment
}

// FragmentRegistry manages the ordered set of fragment providers for one
// attachment and drives composition.
type FragmentRegistry interface {
	// Register adds a provider to the registry. Panics on duplicate ID.
	Register(p FragmentProvider)

	// All returns all registered providers in registration order.
	All() []FragmentProvider

	// Compose collects every provider's fragment in registration order and
	// composes them into a single rule set.
	Compose() (models.RuleSet, error)
}

// staticFragment serves a fragment that was authored as data, e.g. loaded
// from a rules file.
type staticFragment struct {
	fragment models.RuleFragment
}

// Static wraps an already-built fragment as a provider whose ID is the
// fragment name.
func Static(f models.RuleFragment) FragmentProvider {
	return staticFragment{fragment: f}
}

func (s staticFragment) ID() string                    { return s.fragment.Name }
func (s staticFragment) Fragment() models.RuleFragment { return s.fragment }
