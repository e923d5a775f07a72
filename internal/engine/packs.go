package engine

import (
	"fmt"
	"slices"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rulepacks/aks"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rulepacks/cloudpc"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rulepacks/devops"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

var packCatalog = map[string]func(models.Environment) rules.FragmentProvider{
	aks.ID:     aks.New,
	devops.ID:  devops.New,
	cloudpc.ID: cloudpc.New,
}

// PackIDs returns the IDs of the built-in rule packs in sorted order.
func PackIDs() []string {
	ids := make([]string, 0, len(packCatalog))
	for id := range packCatalog {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NewPacks renders the named packs for env, in the order given.
func NewPacks(ids []string, env models.Environment) ([]rules.FragmentProvider, error) {
	out := make([]rules.FragmentProvider, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("rule pack %q listed twice", id)
		}
		seen[id] = true
		ctor, ok := packCatalog[id]
		if !ok {
			return nil, fmt.Errorf("unknown rule pack %q (available: %v)", id, PackIDs())
		}
		out = append(out, ctor(env))
	}
	return out, nil
}
