package rules

import (
	"slices"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

const (
	// NetworkCollectionName and ApplicationCollectionName are the collection
	// names used inside every composed rule collection group.
	NetworkCollectionName     = "net-rules-collection"
	ApplicationCollectionName = "app-rules-collection"

	// BaseCollectionPriority is assigned to the first emitted collection.
	// When both kinds are present the application collection gets
	// BaseCollectionPriority+1.
	BaseCollectionPriority = 300
)

// Compose merges fragments into a single rule set.
//
// Network rules from all fragments are concatenated in fragment order, then
// application rules likewise. A collection is emitted only when it has at
// least one rule. The network collection takes priority 300 and the
// application collection 301; a single-kind set uses 300. Every collection
// allows.
//
// Compose is all-or-nothing: when Validate reports any problem the returned
// error is a *ValidationError and the rule set is empty. The input fragments
// are never modified.
func Compose(fragments []models.RuleFragment) (models.RuleSet, error) {
	if err := Validate(fragments); err != nil {
		return models.RuleSet{}, err
	}

	var (
		netRules []models.NetworkRule
		appRules []models.ApplicationRule
	)
	for _, f := range fragments {
		for _, r := range f.NetworkRules {
			netRules = append(netRules, cloneNetworkRule(r))
		}
		for _, r := range f.ApplicationRules {
			appRules = append(appRules, cloneApplicationRule(r))
		}
	}

	var set models.RuleSet
	priority := BaseCollectionPriority
	if len(netRules) > 0 {
		set.Network = &models.RuleCollection{
			Name:         NetworkCollectionName,
			Kind:         models.RuleKindNetwork,
			Priority:     priority,
			Action:       models.ActionAllow,
			NetworkRules: netRules,
		}
		priority++
	}
	if len(appRules) > 0 {
		set.Application = &models.RuleCollection{
			Name:             ApplicationCollectionName,
			Kind:             models.RuleKindApplication,
			Priority:         priority,
			Action:           models.ActionAllow,
			ApplicationRules: appRules,
		}
	}
	return set, nil
}

func cloneNetworkRule(r models.NetworkRule) models.NetworkRule {
	r.IPProtocols = slices.Clone(r.IPProtocols)
	r.SourceAddresses = slices.Clone(r.SourceAddresses)
	r.DestinationAddresses = slices.Clone(r.DestinationAddresses)
	r.DestinationPorts = slices.Clone(r.DestinationPorts)
	return r
}

func cloneApplicationRule(r models.ApplicationRule) models.ApplicationRule {
	r.SourceAddresses = slices.Clone(r.SourceAddresses)
	r.TargetFQDNs = slices.Clone(r.TargetFQDNs)
	r.FQDNTags = slices.Clone(r.FQDNTags)
	r.Protocols = slices.Clone(r.Protocols)
	return r
}
