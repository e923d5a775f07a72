package main

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/config"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/credentials"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/engine"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/policy"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/providers/aws/common"
	awsoutputs "github.com/pankaj-dahiya-devops/azure-hub/internal/providers/aws/outputs"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/providers/azure"
	kube "github.com/pankaj-dahiya-devops/azure-hub/internal/providers/kubernetes"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/secrets"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/stackref"
)

// outputRegistry reads and writes stage outputs.
type outputRegistry interface {
	stackref.Registry
	stackref.Publisher
}

// backends builds the collaborators of a stage run from the config. Every
// field can be replaced in tests.
type backends struct {
	aws        common.AWSClientProvider
	kube       kube.KubeClientProvider
	credential func(tenantID string) (azcore.TokenCredential, error)
	azure      func(subscriptionID string, cred azcore.TokenCredential) (*azure.ClientSet, error)
	priorities *policy.PriorityRegistry
}

func newBackends() *backends {
	return &backends{
		aws:        common.NewDefaultAWSClientProvider(),
		kube:       kube.NewDefaultKubeClientProvider(),
		credential: azure.NewDefaultCredential,
		azure: func(subscriptionID string, cred azcore.TokenCredential) (*azure.ClientSet, error) {
			return azure.NewClientSet(subscriptionID, cred, nil)
		},
		priorities: policy.DefaultRegistry(),
	}
}

// dependencies wires the engine. Azure clients and the secret store are only
// built when the run applies.
func (b *backends) dependencies(ctx context.Context, cfg *config.Config, apply bool) (engine.Dependencies, error) {
	outputs, err := b.outputs(ctx, cfg)
	if err != nil {
		return engine.Dependencies{}, err
	}
	deps := engine.Dependencies{
		Outputs:     outputs,
		Publisher:   outputs,
		Attacher:    policy.NewAttacher(b.priorities),
		Credentials: b.credentials(cfg),
	}
	if !apply {
		return deps, nil
	}

	clients := b.lazyAzure(cfg)
	cs, err := clients()
	if err != nil {
		return engine.Dependencies{}, err
	}
	store, err := b.secretStore(ctx, cfg, outputs, clients)
	if err != nil {
		return engine.Dependencies{}, err
	}
	deps.Secrets = store
	deps.Submitter = azure.NewSubmitter(cs.FirewallPolicies, cs.RuleCollectionGroups)
	return deps, nil
}

func (b *backends) credentials(cfg *config.Config) *credentials.Resource {
	return credentials.NewResource(
		credentials.NewFileStateStore(cfg.Credentials.StateFile),
		credentials.WithKeySize(cfg.Credentials.KeySize),
	)
}

// outputs returns the stage output registry selected by
// stack_outputs.backend.
func (b *backends) outputs(ctx context.Context, cfg *config.Config) (outputRegistry, error) {
	so := cfg.StackOutputs
	switch so.Backend {
	case "s3":
		profile, err := b.aws.LoadProfile(ctx, so.Profile, so.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS profile for stack outputs: %w", err)
		}
		return awsoutputs.NewStackRegistry(profile.Clients.S3, so.Bucket, so.Prefix), nil
	case "file":
		return stackref.NewFileRegistry(so.Dir), nil
	default:
		return nil, fmt.Errorf("unsupported stack output backend %q", so.Backend)
	}
}

// lazyAzure returns a function building the Azure clients on first use.
func (b *backends) lazyAzure(cfg *config.Config) func() (*azure.ClientSet, error) {
	var cs *azure.ClientSet
	return func() (*azure.ClientSet, error) {
		if cs != nil {
			return cs, nil
		}
		if cfg.Azure.SubscriptionID == "" {
			return nil, fmt.Errorf("azure.subscription_id is not set (config or %s)", config.EnvSubscriptionID)
		}
		cred, err := b.credential(cfg.Azure.TenantID)
		if err != nil {
			return nil, err
		}
		built, err := b.azure(cfg.Azure.SubscriptionID, cred)
		if err != nil {
			return nil, err
		}
		cs = built
		return cs, nil
	}
}

// secretStore returns the store selected by secrets.backend. A Key Vault
// without a configured name or resource group is located through the
// shared stage outputs.
func (b *backends) secretStore(
	ctx context.Context,
	cfg *config.Config,
	outputs stackref.Registry,
	clients func() (*azure.ClientSet, error),
) (secrets.Store, error) {
	sc := cfg.Secrets
	switch sc.Backend {
	case "keyvault":
		cs, err := clients()
		if err != nil {
			return nil, err
		}
		rg, vault := sc.ResourceGroup, sc.VaultName
		if rg == "" || vault == "" {
			stage := stackref.StageName(cfg.Stack.Organization, cfg.Groups.Shared, cfg.Stack.Name)
			shared, err := stackref.Shared(ctx, outputs, stage)
			if err != nil {
				return nil, fmt.Errorf("locate key vault: %w", err)
			}
			if rg == "" {
				rg = shared.RsGroup.Name
			}
			if vault == "" {
				vault = shared.Vault.Name
			}
		}
		if rg == "" || vault == "" {
			return nil, fmt.Errorf("locate key vault: no vault name or resource group configured or published")
		}
		return azure.NewKeyVaultStore(cs.Secrets, rg, vault), nil
	case "kubernetes":
		client, info, err := b.kube.ClientsetForContext(sc.KubeContext)
		if err != nil {
			return nil, fmt.Errorf("load kubeconfig: %w", err)
		}
		logger.Debugf("writing secrets to namespace %s in context %s", sc.Namespace, info.ContextName)
		return kube.NewSecretStore(client, sc.Namespace), nil
	case "memory":
		return secrets.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", sc.Backend)
	}
}
