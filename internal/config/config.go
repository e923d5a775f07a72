package config

import "github.com/pankaj-dahiya-devops/azure-hub/internal/models"

// Config is the top-level application configuration.
// It is loaded from ~/.config/azure-hub/config.yaml and must never be
// committed with real secrets.
type Config struct {
	Azure        AzureConfig         `yaml:"azure"         json:"azure"`
	Stack        StackConfig         `yaml:"stack"         json:"stack"`
	Subnets      models.SubnetSpaces `yaml:"subnets"       json:"subnets"`
	Groups       GroupsConfig        `yaml:"groups"        json:"groups"`
	StackOutputs StackOutputsConfig  `yaml:"stack_outputs" json:"stack_outputs"`
	Secrets      SecretsConfig       `yaml:"secrets"       json:"secrets"`
	Credentials  CredentialsConfig   `yaml:"credentials"   json:"credentials"`

	// LogLevel is a loggo configuration string, e.g. "<root>=INFO" or "DEBUG".
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// AzureConfig identifies the target subscription.
type AzureConfig struct {
	SubscriptionID string `yaml:"subscription_id" json:"subscription_id"`
	TenantID       string `yaml:"tenant_id"       json:"tenant_id"`

	// Location is the Azure region resources are deployed to.
	Location string `yaml:"location" json:"location"`

	// RegionCode is substituted into region-qualified rules such as
	// "AzureCloud.<region>". Defaults to Location.
	RegionCode string `yaml:"region_code" json:"region_code"`
}

// Region returns RegionCode, or Location when no region code is set.
func (a AzureConfig) Region() string {
	if a.RegionCode != "" {
		return a.RegionCode
	}
	return a.Location
}

// StackConfig names the deployment. Stage outputs are referenced as
// "<organization>/<group>/<name>".
type StackConfig struct {
	Organization string `yaml:"organization" json:"organization"`
	Name         string `yaml:"name"         json:"name"`
}

// GroupsConfig holds the per-stage group names. Each name doubles as the
// project of that stage's outputs.
type GroupsConfig struct {
	Shared  string `yaml:"shared"   json:"shared"`
	Hub     string `yaml:"hub"      json:"hub"`
	AKS     string `yaml:"aks"      json:"aks"`
	CloudPC string `yaml:"cloud_pc" json:"cloud_pc"`
}

// StackOutputsConfig selects where stage outputs are read from.
type StackOutputsConfig struct {
	// Backend is "file" or "s3".
	Backend string `yaml:"backend" json:"backend"`

	// Dir is the root directory of the file backend.
	Dir string `yaml:"dir" json:"dir"`

	Bucket  string `yaml:"bucket"  json:"bucket"`
	Prefix  string `yaml:"prefix"  json:"prefix"`
	Region  string `yaml:"region"  json:"region"`
	Profile string `yaml:"profile" json:"profile"`
}

// SecretsConfig selects where generated credentials are written.
type SecretsConfig struct {
	// Backend is "keyvault", "kubernetes" or "memory".
	Backend string `yaml:"backend" json:"backend"`

	// VaultName and ResourceGroup locate the Key Vault. When empty they are
	// read from the shared stage outputs.
	VaultName     string `yaml:"vault_name"     json:"vault_name"`
	ResourceGroup string `yaml:"resource_group" json:"resource_group"`

	Namespace   string `yaml:"namespace"    json:"namespace"`
	KubeContext string `yaml:"kube_context" json:"kube_context"`
}

// CredentialsConfig tunes SSH credential generation.
type CredentialsConfig struct {
	KeySize        int    `yaml:"key_size"        json:"key_size"`
	PasswordLength int    `yaml:"password_length" json:"password_length"`
	StateFile      string `yaml:"state_file"      json:"state_file"`
}

// Environment returns what rule packs need to render their fragments.
func (c *Config) Environment(acrName string) models.Environment {
	return models.Environment{
		RegionCode: c.Azure.Region(),
		Subnets:    c.Subnets,
		ACRName:    acrName,
	}
}

// Loader is the interface for reading Config from disk.
// Default implementation reads from ~/.config/azure-hub/config.yaml.
type Loader interface {
	// Load reads, parses, and validates the configuration file.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}
