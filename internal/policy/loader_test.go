package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

func TestLoadRulesFile_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	content := `
version: 1
packs:
  devops:
    enabled: false
stages:
  cloudpc:
    priority: 310
fragments:
  - name: monitoring
    network_rules:
      - name: ntp
        ip_protocols: [UDP]
        source_addresses: ["192.168.31.0/24"]
        destination_addresses: ["*"]
        destination_ports: ["123"]
    application_rules:
      - name: grafana
        source_addresses: ["192.168.31.0/24"]
        target_fqdns: ["grafana.com"]
        protocols:
          - type: Https
            port: 443
`

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != 1 {
		t.Fatalf("expected version 1")
	}

	pc := cfg.Packs["devops"]
	if pc.Enabled == nil || *pc.Enabled {
		t.Fatalf("expected devops enabled=false")
	}

	if cfg.Stages["cloudpc"].Priority != 310 {
		t.Fatalf("expected cloudpc priority 310")
	}

	if len(cfg.Fragments) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(cfg.Fragments))
	}
	f := cfg.Fragments[0]
	if f.NetworkRules[0].IPProtocols[0] != models.ProtocolUDP {
		t.Fatalf("expected UDP protocol, got %q", f.NetworkRules[0].IPProtocols[0])
	}
	if p := f.ApplicationRules[0].Protocols[0]; p.Type != models.ApplicationProtocolHTTPS || p.Port != 443 {
		t.Fatalf("expected Https:443, got %+v", p)
	}
}

func TestLoadRulesFile_DefaultsMaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Packs == nil || cfg.Stages == nil {
		t.Fatalf("expected non-nil maps")
	}
}

func TestLoadRulesFile_InvalidVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	if err := os.WriteFile(path, []byte("version: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadRulesFile(path)
	if err == nil {
		t.Fatalf("expected error for invalid version")
	}
}

func TestLoadRulesFile_FileNotFound(t *testing.T) {
	_, err := LoadRulesFile("nonexistent.yaml")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
