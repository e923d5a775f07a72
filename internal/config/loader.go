package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// Environment variables that override the file.
const (
	EnvSubscriptionID = "AZURE_SUBSCRIPTION_ID"
	EnvTenantID       = "AZURE_TENANT_ID"
	EnvLocation       = "AZURE_LOCATION"
	EnvStack          = "AZHUB_STACK"
	EnvOrganization   = "AZHUB_ORGANIZATION"
)

// Default returns the configuration used when no file exists: the landing
// zone address plan, stage group names and key parameters.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Azure: AzureConfig{Location: "southeastasia"},
		Stack: StackConfig{Organization: "organization", Name: "dev"},
		Subnets: models.SubnetSpaces{
			Firewall:       "192.168.30.0/26",
			FirewallManage: "192.168.30.64/26",
			General:        "192.168.30.128/27",
			AKS:            "192.168.31.0/24",
			CloudPC:        "192.168.32.0/25",
			DevOps:         "192.168.32.128/27",
		},
		Groups: GroupsConfig{
			Shared:  "01-shared",
			Hub:     "02-hub",
			AKS:     "03-aks",
			CloudPC: "04-cloudPC",
		},
		StackOutputs: StackOutputsConfig{
			Backend: "file",
			Dir:     filepath.Join(home, ".config", "azure-hub", "outputs"),
		},
		Secrets: SecretsConfig{Backend: "memory", Namespace: "azure-hub"},
		Credentials: CredentialsConfig{
			KeySize:        4096,
			PasswordLength: 50,
			StateFile:      filepath.Join(home, ".config", "azure-hub", "credentials.json"),
		},
		LogLevel: "<root>=INFO",
	}
}

// DefaultLoader reads the YAML config file over Default and then applies
// environment overrides.
type DefaultLoader struct {
	path   string
	getenv func(string) string
}

// NewDefaultLoader returns a loader for path. An empty path means
// ~/.config/azure-hub/config.yaml.
func NewDefaultLoader(path string) *DefaultLoader {
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".config", "azure-hub", "config.yaml")
	}
	return &DefaultLoader{path: path, getenv: os.Getenv}
}

func (l *DefaultLoader) ConfigPath() string { return l.path }

// Load returns the merged configuration. A missing file is not an error.
// All validation problems are joined into the returned error.
func (l *DefaultLoader) Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}

	l.applyEnv(cfg)
	cfg.Azure.RegionCode = cfg.Azure.Region()

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, errors.Join(errs...))
	}
	return cfg, nil
}

func (l *DefaultLoader) applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{EnvSubscriptionID, &cfg.Azure.SubscriptionID},
		{EnvTenantID, &cfg.Azure.TenantID},
		{EnvLocation, &cfg.Azure.Location},
		{EnvStack, &cfg.Stack.Name},
		{EnvOrganization, &cfg.Stack.Organization},
	}
	for _, o := range overrides {
		if v := l.getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}
