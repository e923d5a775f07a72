// Package azure creates Azure firewall policies and their rule collection
// groups and writes generated secrets to Key Vault.
package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("azhub.providers.azure")

// managementScope is the token scope of the Azure Resource Manager API.
const managementScope = "https://management.azure.com/.default"

// RuleCollectionGroupsClient is the subset of firewall policy rule collection
// group operations the submitter calls. Long running operations are awaited
// by the implementation.
type RuleCollectionGroupsClient interface {
	CreateOrUpdate(
		ctx context.Context,
		resourceGroup, policyName, groupName string,
		group armnetwork.FirewallPolicyRuleCollectionGroup,
	) (armnetwork.FirewallPolicyRuleCollectionGroup, error)
}

// FirewallPoliciesClient creates root firewall policies. Long running
// operations are awaited by the implementation.
type FirewallPoliciesClient interface {
	CreateOrUpdate(
		ctx context.Context,
		resourceGroup, policyName string,
		body armnetwork.FirewallPolicy,
	) (armnetwork.FirewallPolicy, error)
}

// SecretsClient is the subset of Key Vault management operations used by
// KeyVaultStore. *armkeyvault.SecretsClient satisfies it.
type SecretsClient interface {
	CreateOrUpdate(
		ctx context.Context,
		resourceGroupName, vaultName, secretName string,
		parameters armkeyvault.SecretCreateOrUpdateParameters,
		options *armkeyvault.SecretsClientCreateOrUpdateOptions,
	) (armkeyvault.SecretsClientCreateOrUpdateResponse, error)
}

// ClientSet holds the Azure clients for one subscription.
type ClientSet struct {
	Credential           azcore.TokenCredential
	FirewallPolicies     FirewallPoliciesClient
	RuleCollectionGroups RuleCollectionGroupsClient
	Secrets              SecretsClient
}

// NewDefaultCredential returns the environment/managed identity/CLI chained
// credential, scoped to tenantID when it is set.
func NewDefaultCredential(tenantID string) (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: tenantID,
	})
	if err != nil {
		return nil, errors.Annotate(err, "creating Azure credential")
	}
	return cred, nil
}

// NewClientSet builds the production clients for subscriptionID.
func NewClientSet(subscriptionID string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*ClientSet, error) {
	if subscriptionID == "" {
		return nil, errors.NotValidf("empty subscription ID")
	}
	policies, err := armnetwork.NewFirewallPoliciesClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, errors.Annotate(err, "creating firewall policies client")
	}
	groups, err := armnetwork.NewFirewallPolicyRuleCollectionGroupsClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, errors.Annotate(err, "creating rule collection groups client")
	}
	secrets, err := armkeyvault.NewSecretsClient(subscriptionID, cred, opts)
	if err != nil {
		return nil, errors.Annotate(err, "creating key vault secrets client")
	}
	return &ClientSet{
		Credential:           cred,
		FirewallPolicies:     firewallPolicies{client: policies},
		RuleCollectionGroups: ruleCollectionGroups{client: groups},
		Secrets:              secrets,
	}, nil
}

// CheckCredential requests a management token to confirm cred is usable.
func CheckCredential(ctx context.Context, cred azcore.TokenCredential) error {
	tok, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{managementScope}})
	if err != nil {
		return errors.Annotate(err, "acquiring management token")
	}
	logger.Debugf("management token valid until %s", tok.ExpiresOn)
	return nil
}

// ruleCollectionGroups adapts the generated client, waiting for the long
// running create to finish.
type ruleCollectionGroups struct {
	client *armnetwork.FirewallPolicyRuleCollectionGroupsClient
}

func (r ruleCollectionGroups) CreateOrUpdate(
	ctx context.Context,
	resourceGroup, policyName, groupName string,
	group armnetwork.FirewallPolicyRuleCollectionGroup,
) (armnetwork.FirewallPolicyRuleCollectionGroup, error) {
	poller, err := r.client.BeginCreateOrUpdate(ctx, resourceGroup, policyName, groupName, group, nil)
	var result armnetwork.FirewallPolicyRuleCollectionGroupsClientCreateOrUpdateResponse
	if err == nil {
		result, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return armnetwork.FirewallPolicyRuleCollectionGroup{}, errors.Trace(err)
	}
	return result.FirewallPolicyRuleCollectionGroup, nil
}

type firewallPolicies struct {
	client *armnetwork.FirewallPoliciesClient
}

func (f firewallPolicies) CreateOrUpdate(
	ctx context.Context,
	resourceGroup, policyName string,
	body armnetwork.FirewallPolicy,
) (armnetwork.FirewallPolicy, error) {
	poller, err := f.client.BeginCreateOrUpdate(ctx, resourceGroup, policyName, body, nil)
	var result armnetwork.FirewallPoliciesClientCreateOrUpdateResponse
	if err == nil {
		result, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return armnetwork.FirewallPolicy{}, errors.Trace(err)
	}
	return result.FirewallPolicy, nil
}
