package azure

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

func testAttachment(t *testing.T) models.PolicyAttachment {
	t.Helper()
	set, err := rules.Compose([]models.RuleFragment{{
		Name: "aks",
		NetworkRules: []models.NetworkRule{{
			Name:                 "aks-net-allows-commons-dns",
			IPProtocols:          []models.NetworkProtocol{models.ProtocolTCP, models.ProtocolUDP},
			SourceAddresses:      []string{"*"},
			DestinationAddresses: []string{"168.63.129.16"},
			DestinationPorts:     []string{"53"},
		}},
		ApplicationRules: []models.ApplicationRule{{
			Name:            "aks-fqdn",
			Description:     "Azure Global required FQDN",
			SourceAddresses: []string{"192.168.31.0/24"},
			TargetFQDNs:     []string{"mcr.microsoft.com"},
			Protocols:       []models.ApplicationProtocol{{Type: models.ApplicationProtocolHTTPS, Port: 443}},
		}},
	}})
	require.NoError(t, err)
	return models.PolicyAttachment{
		Name:          "dev-aks-fw-group",
		Root:          models.RootPolicy{Name: "dev-hub-fw-policy", ResourceGroupName: "dev-02-hub"},
		GroupPriority: 300,
		RuleSet:       set,
	}
}

func TestRuleCollectionGroup(t *testing.T) {
	group, err := RuleCollectionGroup(testAttachment(t))
	require.NoError(t, err)

	require.NotNil(t, group.Name)
	assert.Equal(t, "dev-aks-fw-group", *group.Name)
	require.NotNil(t, group.Properties)
	assert.Equal(t, int32(300), *group.Properties.Priority)
	require.Len(t, group.Properties.RuleCollections, 2)

	net, ok := group.Properties.RuleCollections[0].(*armnetwork.FirewallPolicyFilterRuleCollection)
	require.True(t, ok)
	assert.Equal(t, rules.NetworkCollectionName, *net.Name)
	assert.Equal(t, int32(300), *net.Priority)
	assert.Equal(t, armnetwork.FirewallPolicyFilterRuleCollectionActionTypeAllow, *net.Action.Type)
	require.Len(t, net.Rules, 1)
	nr, ok := net.Rules[0].(*armnetwork.Rule)
	require.True(t, ok)
	assert.Equal(t, armnetwork.FirewallPolicyRuleTypeNetworkRule, *nr.RuleType)
	assert.Nil(t, nr.Description)
	require.Len(t, nr.IPProtocols, 2)
	assert.Equal(t, armnetwork.FirewallPolicyRuleNetworkProtocolUDP, *nr.IPProtocols[1])

	app, ok := group.Properties.RuleCollections[1].(*armnetwork.FirewallPolicyFilterRuleCollection)
	require.True(t, ok)
	assert.Equal(t, int32(301), *app.Priority)
	ar, ok := app.Rules[0].(*armnetwork.ApplicationRule)
	require.True(t, ok)
	assert.Equal(t, "Azure Global required FQDN", *ar.Description)
	assert.Nil(t, ar.FqdnTags)
	require.Len(t, ar.Protocols, 1)
	assert.Equal(t, armnetwork.FirewallPolicyRuleApplicationProtocolTypeHTTPS, *ar.Protocols[0].ProtocolType)
	assert.Equal(t, int32(443), *ar.Protocols[0].Port)
}

func TestRuleCollectionGroup_UnsupportedAction(t *testing.T) {
	att := testAttachment(t)
	att.RuleSet.Network.Action = "Deny"
	_, err := RuleCollectionGroup(att)
	assert.ErrorContains(t, err, "Deny")
}

func TestFirewallPolicy(t *testing.T) {
	spec := models.FirewallPolicySpec{
		Root:                   models.RootPolicy{Name: "dev-hub-fw-policy", ResourceGroupName: "dev-02-hub"},
		Location:               "southeastasia",
		Tier:                   "Basic",
		AutoLearnPrivateRanges: true,
	}
	body, err := FirewallPolicy(spec)
	require.NoError(t, err)
	assert.Equal(t, "southeastasia", *body.Location)
	require.NotNil(t, body.Properties.SKU)
	assert.Equal(t, armnetwork.FirewallPolicySKUTierBasic, *body.Properties.SKU.Tier)
	require.NotNil(t, body.Properties.Snat)
	assert.Equal(t, armnetwork.AutoLearnPrivateRangesModeEnabled, *body.Properties.Snat.AutoLearnPrivateRanges)

	spec.Location = ""
	_, err = FirewallPolicy(spec)
	assert.ErrorContains(t, err, "without location")
}
