package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"
	"github.com/juju/errors"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/secrets"
)

// RetainTag marks secrets that must survive the deletion of their stack.
const RetainTag = "azhub-retain-on-delete"

// KeyVaultStore writes secrets to an Azure Key Vault through the management
// plane.
type KeyVaultStore struct {
	client        SecretsClient
	resourceGroup string
	vaultName     string
}

// NewKeyVaultStore returns a store writing to vaultName in resourceGroup.
func NewKeyVaultStore(client SecretsClient, resourceGroup, vaultName string) *KeyVaultStore {
	return &KeyVaultStore{client: client, resourceGroup: resourceGroup, vaultName: vaultName}
}

func (s *KeyVaultStore) Put(ctx context.Context, key, value, contentType string, opts secrets.PutOptions) error {
	params := armkeyvault.SecretCreateOrUpdateParameters{
		Properties: &armkeyvault.SecretProperties{
			Value:       to.Ptr(value),
			ContentType: to.Ptr(contentType),
		},
	}
	if opts.RetainOnDelete {
		params.Tags = map[string]*string{RetainTag: to.Ptr("true")}
	}
	_, err := s.client.CreateOrUpdate(ctx, s.resourceGroup, s.vaultName, key, params, nil)
	if err != nil {
		return errors.Annotatef(err, "writing secret %q to vault %q", key, s.vaultName)
	}
	logger.Debugf("secret %q written to vault %q", key, s.vaultName)
	return nil
}
