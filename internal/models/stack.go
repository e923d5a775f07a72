package models

import "time"

// ResourceOutput is the common name/id pair every stage publishes for the
// resources it owns.
type ResourceOutput struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// SharedStackOutput is published by the 01-shared stage.
type SharedStackOutput struct {
	RsGroup      ResourceOutput `json:"rsGroup"`
	LogWorkspace struct {
		ResourceOutput
		CustomerID string `json:"customerId"`
	} `json:"logWorkspace"`
	AppInsight struct {
		ResourceOutput
		Key string `json:"key"`
	} `json:"appInsight"`
	Vault struct {
		ResourceOutput
		ReadOnlyGroupID string `json:"readOnlyGroupId"`
		WriteGroupID    string `json:"writeGroupId"`
	} `json:"vault"`
}

// AddressOutput is a resource output that also carries an IP address.
type AddressOutput struct {
	ResourceOutput
	Address string `json:"address"`
}

// HubVnetOutput is published by the 02-hub stage. FirewallPolicy is the root
// policy downstream stages attach their rule collection groups to.
type HubVnetOutput struct {
	RsGroup        ResourceOutput `json:"rsGroup"`
	HubVnet        ResourceOutput `json:"hubVnet"`
	IPAddress      AddressOutput  `json:"ipAddress"`
	FirewallPolicy ResourceOutput `json:"firewallPolicy"`
	Firewall       AddressOutput  `json:"firewall"`
}

// RootPolicy returns the root policy reference published by the hub stage.
func (h HubVnetOutput) RootPolicy() RootPolicy {
	return RootPolicy{
		Name:              h.FirewallPolicy.Name,
		ResourceGroupName: h.RsGroup.Name,
	}
}

// AttachmentFailure records why one attachment of a stage run failed.
// Failures are isolated per root policy; other attachments still complete.
type AttachmentFailure struct {
	Attachment string `json:"attachment"`
	RootPolicy string `json:"root_policy"`
	Error      string `json:"error"`
}

// StageSummary aggregates counts across a stage plan.
type StageSummary struct {
	Attachments      int `json:"attachments"`
	FailedAttachment int `json:"failed_attachments"`
	NetworkRules     int `json:"network_rules"`
	ApplicationRules int `json:"application_rules"`
	Credentials      int `json:"credentials"`
	Intents          int `json:"intents"`
}

// StagePlan is the top-level output of one stage run. Intents are listed in
// dependency order: every intent appears after all of its predecessors.
type StagePlan struct {
	PlanID      string              `json:"plan_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Stage       string              `json:"stage"`
	Stack       string              `json:"stack"`
	Summary     StageSummary        `json:"summary"`
	Attachments []PolicyAttachment  `json:"attachments"`
	Credentials []CredentialSummary `json:"credentials,omitempty"`
	Intents     []ResourceIntent    `json:"intents"`
	Failures    []AttachmentFailure `json:"failures,omitempty"`
	Applied     bool                `json:"applied"`
}
