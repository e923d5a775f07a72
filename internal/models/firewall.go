package models

// NetworkProtocol is an IP protocol accepted by a firewall network rule.
type NetworkProtocol string

const (
	ProtocolTCP  NetworkProtocol = "TCP"
	ProtocolUDP  NetworkProtocol = "UDP"
	ProtocolICMP NetworkProtocol = "ICMP"
	ProtocolAny  NetworkProtocol = "Any"
)

// ApplicationProtocolType is the L7 protocol of an application rule target.
type ApplicationProtocolType string

const (
	ApplicationProtocolHTTP  ApplicationProtocolType = "Http"
	ApplicationProtocolHTTPS ApplicationProtocolType = "Https"
	ApplicationProtocolMssql ApplicationProtocolType = "Mssql"
)

// RuleKind distinguishes the two rule collection kinds a policy group carries.
type RuleKind string

const (
	RuleKindNetwork     RuleKind = "network"
	RuleKindApplication RuleKind = "application"
)

// RuleAction is the action applied to every rule in a collection.
// Only Allow is modelled; there is no deny or negation concept.
type RuleAction string

const ActionAllow RuleAction = "Allow"

// NetworkRule is an L3/L4 allow rule.
//
// Source and destination entries may be literal IPs, CIDRs, the wildcard "*"
// or Azure service tags such as "AzureContainerRegistry" or
// "AzureCloud.southeastasia".
type NetworkRule struct {
	Name                 string            `yaml:"name"                  json:"name"`
	Description          string            `yaml:"description,omitempty" json:"description,omitempty"`
	IPProtocols          []NetworkProtocol `yaml:"ip_protocols"          json:"ip_protocols"`
	SourceAddresses      []string          `yaml:"source_addresses"      json:"source_addresses"`
	DestinationAddresses []string          `yaml:"destination_addresses" json:"destination_addresses"`
	DestinationPorts     []string          `yaml:"destination_ports"     json:"destination_ports"`
}

// ApplicationProtocol is one protocol/port pair of an application rule.
type ApplicationProtocol struct {
	Type ApplicationProtocolType `yaml:"type" json:"type"`
	Port int                     `yaml:"port" json:"port"`
}

// ApplicationRule is an FQDN based allow rule. Either TargetFQDNs or FQDNTags
// (or both) must be populated.
type ApplicationRule struct {
	Name            string                `yaml:"name"                  json:"name"`
	Description     string                `yaml:"description,omitempty" json:"description,omitempty"`
	SourceAddresses []string              `yaml:"source_addresses"      json:"source_addresses"`
	TargetFQDNs     []string              `yaml:"target_fqdns,omitempty" json:"target_fqdns,omitempty"`
	FQDNTags        []string              `yaml:"fqdn_tags,omitempty"   json:"fqdn_tags,omitempty"`
	Protocols       []ApplicationProtocol `yaml:"protocols"             json:"protocols"`
}

// RuleFragment is the unit of policy contributed by one workload. It is a
// value object: composition never mutates it. Either rule list may be empty.
type RuleFragment struct {
	Name             string            `yaml:"name"                        json:"name"`
	NetworkRules     []NetworkRule     `yaml:"network_rules,omitempty"     json:"network_rules,omitempty"`
	ApplicationRules []ApplicationRule `yaml:"application_rules,omitempty" json:"application_rules,omitempty"`
}

// RuleCount returns the total number of rules in the fragment.
func (f RuleFragment) RuleCount() int {
	return len(f.NetworkRules) + len(f.ApplicationRules)
}

// RuleCollection is an ordered group of same-kind rules sharing one action and
// one priority. Exactly one of NetworkRules / ApplicationRules is populated,
// matching Kind.
type RuleCollection struct {
	Name             string            `json:"name"`
	Kind             RuleKind          `json:"kind"`
	Priority         int               `json:"priority"`
	Action           RuleAction        `json:"action"`
	NetworkRules     []NetworkRule     `json:"network_rules,omitempty"`
	ApplicationRules []ApplicationRule `json:"application_rules,omitempty"`
}

// Len returns the number of rules in the collection.
func (c RuleCollection) Len() int {
	if c.Kind == RuleKindApplication {
		return len(c.ApplicationRules)
	}
	return len(c.NetworkRules)
}

// RuleSet is the output of composition: at most one collection of each kind.
// A nil collection means no fragment contributed rules of that kind.
type RuleSet struct {
	Network     *RuleCollection `json:"network,omitempty"`
	Application *RuleCollection `json:"application,omitempty"`
}

// Collections returns the non-nil collections ordered by ascending priority.
func (s RuleSet) Collections() []RuleCollection {
	var out []RuleCollection
	if s.Network != nil {
		out = append(out, *s.Network)
	}
	if s.Application != nil {
		out = append(out, *s.Application)
	}
	if len(out) == 2 && out[1].Priority < out[0].Priority {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

// Empty reports whether the set carries no collections at all.
func (s RuleSet) Empty() bool {
	return s.Network == nil && s.Application == nil
}

// RuleCount returns the total number of rules across both collections.
func (s RuleSet) RuleCount() int {
	n := 0
	for _, c := range s.Collections() {
		n += c.Len()
	}
	return n
}
