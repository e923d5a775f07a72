package azure

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

type createCall struct {
	resourceGroup, policy, group string
}

type fakeGroups struct {
	calls []createCall
	err   error
}

func (f *fakeGroups) CreateOrUpdate(
	_ context.Context,
	resourceGroup, policyName, groupName string,
	group armnetwork.FirewallPolicyRuleCollectionGroup,
) (armnetwork.FirewallPolicyRuleCollectionGroup, error) {
	if f.err != nil {
		return armnetwork.FirewallPolicyRuleCollectionGroup{}, f.err
	}
	f.calls = append(f.calls, createCall{resourceGroup, policyName, groupName})
	return group, nil
}

type fakePolicies struct {
	calls  []createCall
	bodies []armnetwork.FirewallPolicy
	err    error
}

func (f *fakePolicies) CreateOrUpdate(
	_ context.Context,
	resourceGroup, policyName string,
	body armnetwork.FirewallPolicy,
) (armnetwork.FirewallPolicy, error) {
	if f.err != nil {
		return armnetwork.FirewallPolicy{}, f.err
	}
	f.calls = append(f.calls, createCall{resourceGroup: resourceGroup, policy: policyName})
	f.bodies = append(f.bodies, body)
	return body, nil
}

func hubPolicyIntent() models.ResourceIntent {
	root := models.RootPolicy{Name: "dev-hub-fw-policy", ResourceGroupName: "dev-02-hub"}
	return models.ResourceIntent{
		Name: root.IntentName(),
		Type: models.ResourceTypeFirewallPolicy,
		Properties: models.FirewallPolicySpec{
			Root:                   root,
			Location:               "southeastasia",
			Tier:                   "Basic",
			AutoLearnPrivateRanges: true,
		},
	}
}

func TestSubmitter_SkipsExternalAndForeignIntents(t *testing.T) {
	att := testAttachment(t)
	intents := []models.ResourceIntent{
		{Name: att.Root.IntentName(), Type: models.ResourceTypeFirewallPolicy, External: true},
		{Name: "cred", Type: models.ResourceTypeSSHCredential},
		{Name: "group", Type: models.ResourceTypeRuleCollectionGroup, Properties: att},
	}
	policies, groups := &fakePolicies{}, &fakeGroups{}
	require.NoError(t, NewSubmitter(policies, groups).Submit(context.Background(), intents))
	assert.Empty(t, policies.calls)
	assert.Equal(t, []createCall{{"dev-02-hub", "dev-hub-fw-policy", "dev-aks-fw-group"}}, groups.calls)
}

func TestSubmitter_CreatesOwnedRootPolicy(t *testing.T) {
	att := testAttachment(t)
	intents := []models.ResourceIntent{
		hubPolicyIntent(),
		{Name: "group", Type: models.ResourceTypeRuleCollectionGroup, Properties: att},
	}
	policies, groups := &fakePolicies{}, &fakeGroups{}
	require.NoError(t, NewSubmitter(policies, groups).Submit(context.Background(), intents))

	require.Len(t, policies.calls, 1)
	assert.Equal(t, createCall{resourceGroup: "dev-02-hub", policy: "dev-hub-fw-policy"}, policies.calls[0])
	assert.Equal(t, "southeastasia", *policies.bodies[0].Location)
	assert.Equal(t, armnetwork.FirewallPolicySKUTierBasic, *policies.bodies[0].Properties.SKU.Tier)
	assert.Len(t, groups.calls, 1)
}

func TestSubmitter_Errors(t *testing.T) {
	att := testAttachment(t)

	fake := &fakeGroups{err: errors.New("Conflict")}
	err := NewSubmitter(&fakePolicies{}, fake).Submit(context.Background(), []models.ResourceIntent{
		{Name: "group", Type: models.ResourceTypeRuleCollectionGroup, Properties: att},
	})
	assert.ErrorContains(t, err, "Conflict")
	assert.ErrorContains(t, err, "dev-aks-fw-group")

	err = NewSubmitter(&fakePolicies{}, &fakeGroups{}).Submit(context.Background(), []models.ResourceIntent{
		{Name: "group", Type: models.ResourceTypeRuleCollectionGroup, Properties: "bogus"},
	})
	assert.ErrorContains(t, err, "properties string")

	err = NewSubmitter(&fakePolicies{err: errors.New("QuotaExceeded")}, &fakeGroups{}).Submit(
		context.Background(), []models.ResourceIntent{hubPolicyIntent()})
	assert.ErrorContains(t, err, "QuotaExceeded")
	assert.ErrorContains(t, err, "dev-02-hub/dev-hub-fw-policy")
}
