package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLoader(t *testing.T, content string, env map[string]string) *DefaultLoader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	l := NewDefaultLoader(path)
	l.getenv = func(k string) string { return env[k] }
	return l
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := newTestLoader(t, "", nil).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Subnets.AKS != "192.168.31.0/24" {
		t.Errorf("default AKS subnet: got %q", cfg.Subnets.AKS)
	}
	if cfg.Groups.CloudPC != "04-cloudPC" {
		t.Errorf("default cloudPC group: got %q", cfg.Groups.CloudPC)
	}
	if cfg.Credentials.KeySize != 4096 || cfg.Credentials.PasswordLength != 50 {
		t.Errorf("default credentials: got %+v", cfg.Credentials)
	}
	if cfg.Azure.RegionCode != cfg.Azure.Location {
		t.Errorf("region code should default to location, got %q", cfg.Azure.RegionCode)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	content := `
azure:
  location: eastus
stack:
  organization: drunkcoding
  name: prd
subnets:
  aks: 10.10.0.0/24
stack_outputs:
  backend: s3
  bucket: azhub-outputs
secrets:
  backend: keyvault
  vault_name: prd-vlt
`
	cfg, err := newTestLoader(t, content, nil).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Azure.Location != "eastus" || cfg.Azure.RegionCode != "eastus" {
		t.Errorf("location: got %+v", cfg.Azure)
	}
	if cfg.Subnets.AKS != "10.10.0.0/24" {
		t.Errorf("aks subnet: got %q", cfg.Subnets.AKS)
	}
	// Untouched defaults survive a partial file.
	if cfg.Subnets.DevOps != "192.168.32.128/27" {
		t.Errorf("devops subnet: got %q", cfg.Subnets.DevOps)
	}
	if cfg.Secrets.VaultName != "prd-vlt" {
		t.Errorf("vault: got %q", cfg.Secrets.VaultName)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	content := `
stack:
  name: prd
`
	env := map[string]string{
		EnvStack:          "uat",
		EnvSubscriptionID: "sub-1",
		EnvTenantID:       "tenant-1",
		EnvOrganization:   "org",
		EnvLocation:       "westeurope",
	}
	cfg, err := newTestLoader(t, content, env).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Stack.Name != "uat" || cfg.Stack.Organization != "org" {
		t.Errorf("stack: got %+v", cfg.Stack)
	}
	if cfg.Azure.SubscriptionID != "sub-1" || cfg.Azure.TenantID != "tenant-1" || cfg.Azure.Location != "westeurope" {
		t.Errorf("azure: got %+v", cfg.Azure)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := newTestLoader(t, "azure: [", nil).Load()
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	content := `
secrets:
  backend: vault
credentials:
  key_size: 1024
`
	_, err := newTestLoader(t, content, nil).Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"secrets.backend", "credentials.key_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestConfigPath(t *testing.T) {
	l := NewDefaultLoader("")
	if !strings.HasSuffix(l.ConfigPath(), filepath.Join("azure-hub", "config.yaml")) {
		t.Errorf("unexpected default path %q", l.ConfigPath())
	}
}
