package models

import "fmt"

// Azure resource types emitted as resource intents.
const (
	ResourceTypeFirewallPolicy      = "Microsoft.Network/firewallPolicies"
	ResourceTypeRuleCollectionGroup = "Microsoft.Network/firewallPolicies/ruleCollectionGroups"
	ResourceTypeSSHCredential       = "azhub:credentials:SshGenerator"
	ResourceTypeVaultSecret         = "Microsoft.KeyVault/vaults/secrets"
	ResourceTypeManagedCluster      = "Microsoft.ContainerService/managedClusters"
	ResourceTypeVirtualMachine      = "Microsoft.Compute/virtualMachines"
)

// RootPolicy references a firewall policy created by an upstream stage.
// It is never created or mutated by a downstream stage.
type RootPolicy struct {
	Name              string `json:"name"`
	ResourceGroupName string `json:"resource_group_name"`
}

// Key returns the registry key "<resourceGroup>/<policy>" used to scope
// attachment priorities.
func (r RootPolicy) Key() string {
	return r.ResourceGroupName + "/" + r.Name
}

// IntentName returns the dependency graph node name for the root policy.
func (r RootPolicy) IntentName() string {
	return fmt.Sprintf("%s:%s", ResourceTypeFirewallPolicy, r.Key())
}

// FirewallPolicySpec is the root firewall policy the hub stage creates.
type FirewallPolicySpec struct {
	Root     RootPolicy `json:"root"`
	Location string     `json:"location"`
	// Tier is the policy SKU tier, e.g. "Basic".
	Tier                   string `json:"tier"`
	AutoLearnPrivateRanges bool   `json:"auto_learn_private_ranges"`
}

// PolicyAttachment is one rule collection group bound to a root policy.
type PolicyAttachment struct {
	Name          string     `json:"name"`
	Root          RootPolicy `json:"root"`
	GroupPriority int        `json:"group_priority"`
	RuleSet       RuleSet    `json:"rule_set"`
}

// AttachmentHandle is returned by a successful attach. Intent carries the
// rule collection group resource intent ready for graph submission.
type AttachmentHandle struct {
	Attachment PolicyAttachment `json:"attachment"`
	Intent     ResourceIntent   `json:"intent"`
}

// ResourceIntent is a declarative request for the external provisioning
// engine. Predecessors name the intents that must be fully created first.
type ResourceIntent struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Predecessors   []string `json:"predecessors,omitempty"`
	Properties     any      `json:"properties,omitempty"`
	SecretOutputs  []string `json:"secret_outputs,omitempty"`
	RetainOnDelete bool     `json:"retain_on_delete,omitempty"`
	// External marks a node that is only referenced, never applied, by this
	// stage (e.g. a root policy owned by an upstream stage).
	External bool `json:"external,omitempty"`
}
