package stackref

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

func hubOutput() models.HubVnetOutput {
	return models.HubVnetOutput{
		RsGroup:        models.ResourceOutput{Name: "dev-hub", ID: "/subscriptions/x/resourceGroups/dev-hub"},
		HubVnet:        models.ResourceOutput{Name: "dev-hub-vnet", ID: "vnet-id"},
		FirewallPolicy: models.ResourceOutput{Name: "dev-hub-fw-policy", ID: "policy-id"},
		Firewall:       models.AddressOutput{ResourceOutput: models.ResourceOutput{Name: "dev-hub-fw"}, Address: "192.168.30.4"},
	}
}

func TestRegistries_HubRoundTrip(t *testing.T) {
	registries := map[string]interface {
		Registry
		Publisher
	}{
		"memory": NewMemoryRegistry(),
		"file":   NewFileRegistry(t.TempDir()),
	}
	stage := StageName("drunkcoding", "az-02-hub-vnet", "dev")
	assert.Equal(t, "drunkcoding/az-02-hub-vnet/dev", stage)

	for name, reg := range registries {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			out, err := Encode(hubOutput())
			require.NoError(t, err)
			require.NoError(t, reg.Publish(ctx, stage, out))

			hub, err := HubVnet(ctx, reg, stage)
			require.NoError(t, err)
			assert.Equal(t, hubOutput(), hub)
			assert.Equal(t, models.RootPolicy{Name: "dev-hub-fw-policy", ResourceGroupName: "dev-hub"}, hub.RootPolicy())
		})
	}
}

func TestRegistries_MissingStage(t *testing.T) {
	ctx := context.Background()
	for _, reg := range []Registry{NewMemoryRegistry(), NewFileRegistry(t.TempDir())} {
		_, err := HubVnet(ctx, reg, "org/proj/dev")
		assert.True(t, errors.Is(err, errors.NotFound), "want NotFound, got %v", err)
	}
}

func TestHubVnet_IncompleteOutputs(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()
	out, err := Encode(models.HubVnetOutput{HubVnet: models.ResourceOutput{Name: "vnet"}})
	require.NoError(t, err)
	require.NoError(t, reg.Publish(ctx, "org/hub/dev", out))

	_, err = HubVnet(ctx, reg, "org/hub/dev")
	assert.True(t, errors.Is(err, errors.NotValid), "want NotValid, got %v", err)
}

func TestShared(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()
	var shared models.SharedStackOutput
	shared.RsGroup.Name = "dev-shared"
	shared.Vault.Name = "dev-vlt"
	shared.Vault.ReadOnlyGroupID = "ro"
	out, err := Encode(shared)
	require.NoError(t, err)
	require.NoError(t, reg.Publish(ctx, "org/shared/dev", out))

	got, err := Shared(ctx, reg, "org/shared/dev")
	require.NoError(t, err)
	assert.Equal(t, "dev-vlt", got.Vault.Name)
	assert.Equal(t, "ro", got.Vault.ReadOnlyGroupID)
}

func TestValidateStageName(t *testing.T) {
	for _, bad := range []string{"", "../etc/passwd", "org//dev", "org/./dev"} {
		assert.Error(t, ValidateStageName(bad), bad)
	}
	assert.NoError(t, ValidateStageName("org/proj/dev"))

	reg := NewFileRegistry(filepath.Join(t.TempDir(), "outputs"))
	assert.Error(t, reg.Publish(context.Background(), "../escape", Outputs{}))
}
