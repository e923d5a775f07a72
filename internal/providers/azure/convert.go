package azure

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/juju/errors"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// FirewallPolicy converts spec into the ARM request body of a root policy.
func FirewallPolicy(spec models.FirewallPolicySpec) (armnetwork.FirewallPolicy, error) {
	if spec.Location == "" {
		return armnetwork.FirewallPolicy{}, errors.NotValidf("firewall policy %q without location", spec.Root.Name)
	}
	props := &armnetwork.FirewallPolicyPropertiesFormat{}
	if spec.Tier != "" {
		props.SKU = &armnetwork.FirewallPolicySKU{Tier: to.Ptr(armnetwork.FirewallPolicySKUTier(spec.Tier))}
	}
	if spec.AutoLearnPrivateRanges {
		props.Snat = &armnetwork.FirewallPolicySNAT{
			AutoLearnPrivateRanges: to.Ptr(armnetwork.AutoLearnPrivateRangesModeEnabled),
		}
	}
	return armnetwork.FirewallPolicy{
		Location:   to.Ptr(spec.Location),
		Properties: props,
	}, nil
}

// RuleCollectionGroup converts an attachment into the ARM request body of
// its rule collection group.
func RuleCollectionGroup(att models.PolicyAttachment) (armnetwork.FirewallPolicyRuleCollectionGroup, error) {
	var collections []armnetwork.FirewallPolicyRuleCollectionClassification
	for _, c := range att.RuleSet.Collections() {
		fc, err := filterCollection(c)
		if err != nil {
			return armnetwork.FirewallPolicyRuleCollectionGroup{}, errors.Annotatef(err, "attachment %q", att.Name)
		}
		collections = append(collections, fc)
	}
	return armnetwork.FirewallPolicyRuleCollectionGroup{
		Name: to.Ptr(att.Name),
		Properties: &armnetwork.FirewallPolicyRuleCollectionGroupProperties{
			Priority:        to.Ptr(int32(att.GroupPriority)),
			RuleCollections: collections,
		},
	}, nil
}

func filterCollection(c models.RuleCollection) (*armnetwork.FirewallPolicyFilterRuleCollection, error) {
	if c.Action != models.ActionAllow {
		return nil, errors.NotSupportedf("collection %q action %q", c.Name, c.Action)
	}
	var rules []armnetwork.FirewallPolicyRuleClassification
	switch c.Kind {
	case models.RuleKindNetwork:
		for _, r := range c.NetworkRules {
			rules = append(rules, networkRule(r))
		}
	case models.RuleKindApplication:
		for _, r := range c.ApplicationRules {
			rules = append(rules, applicationRule(r))
		}
	default:
		return nil, errors.NotSupportedf("collection %q kind %q", c.Name, c.Kind)
	}
	return &armnetwork.FirewallPolicyFilterRuleCollection{
		Name:               to.Ptr(c.Name),
		Priority:           to.Ptr(int32(c.Priority)),
		RuleCollectionType: to.Ptr(armnetwork.FirewallPolicyRuleCollectionTypeFirewallPolicyFilterRuleCollection),
		Action: &armnetwork.FirewallPolicyFilterRuleCollectionAction{
			Type: to.Ptr(armnetwork.FirewallPolicyFilterRuleCollectionActionTypeAllow),
		},
		Rules: rules,
	}, nil
}

func networkRule(r models.NetworkRule) *armnetwork.Rule {
	protocols := make([]*armnetwork.FirewallPolicyRuleNetworkProtocol, 0, len(r.IPProtocols))
	for _, p := range r.IPProtocols {
		protocols = append(protocols, to.Ptr(armnetwork.FirewallPolicyRuleNetworkProtocol(p)))
	}
	return &armnetwork.Rule{
		Name:                 to.Ptr(r.Name),
		Description:          optional(r.Description),
		RuleType:             to.Ptr(armnetwork.FirewallPolicyRuleTypeNetworkRule),
		IPProtocols:          protocols,
		SourceAddresses:      to.SliceOfPtrs(r.SourceAddresses...),
		DestinationAddresses: to.SliceOfPtrs(r.DestinationAddresses...),
		DestinationPorts:     to.SliceOfPtrs(r.DestinationPorts...),
	}
}

func applicationRule(r models.ApplicationRule) *armnetwork.ApplicationRule {
	protocols := make([]*armnetwork.FirewallPolicyRuleApplicationProtocol, 0, len(r.Protocols))
	for _, p := range r.Protocols {
		protocols = append(protocols, &armnetwork.FirewallPolicyRuleApplicationProtocol{
			ProtocolType: to.Ptr(armnetwork.FirewallPolicyRuleApplicationProtocolType(p.Type)),
			Port:         to.Ptr(int32(p.Port)),
		})
	}
	rule := &armnetwork.ApplicationRule{
		Name:            to.Ptr(r.Name),
		Description:     optional(r.Description),
		RuleType:        to.Ptr(armnetwork.FirewallPolicyRuleTypeApplicationRule),
		SourceAddresses: to.SliceOfPtrs(r.SourceAddresses...),
		Protocols:       protocols,
	}
	if len(r.TargetFQDNs) > 0 {
		rule.TargetFqdns = to.SliceOfPtrs(r.TargetFQDNs...)
	}
	if len(r.FQDNTags) > 0 {
		rule.FqdnTags = to.SliceOfPtrs(r.FQDNTags...)
	}
	return rule
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return to.Ptr(s)
}
