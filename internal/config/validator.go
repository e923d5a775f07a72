package config

import (
	"fmt"
	"net/netip"
)

var validOutputBackends = map[string]struct{}{"file": {}, "s3": {}}

var validSecretBackends = map[string]struct{}{"keyvault": {}, "kubernetes": {}, "memory": {}}

// Validate checks cfg and returns all problems found. An empty slice means
// the config is usable.
//
// Subscription and tenant IDs are not required here; commands that talk to
// Azure check them themselves.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if cfg.Stack.Name == "" {
		errs = append(errs, fmt.Errorf("stack.name: must not be empty"))
	}
	if cfg.Stack.Organization == "" {
		errs = append(errs, fmt.Errorf("stack.organization: must not be empty"))
	}
	if cfg.Azure.Location == "" {
		errs = append(errs, fmt.Errorf("azure.location: must not be empty"))
	}

	subnets := []struct {
		field, value string
	}{
		{"subnets.firewall", cfg.Subnets.Firewall},
		{"subnets.firewall_manage", cfg.Subnets.FirewallManage},
		{"subnets.general", cfg.Subnets.General},
		{"subnets.aks", cfg.Subnets.AKS},
		{"subnets.cloud_pc", cfg.Subnets.CloudPC},
		{"subnets.devops", cfg.Subnets.DevOps},
	}
	var prefixes []netip.Prefix
	var fields []string
	for _, s := range subnets {
		p, err := netip.ParsePrefix(s.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid CIDR %q", s.field, s.value))
			continue
		}
		for i, other := range prefixes {
			if p.Overlaps(other) {
				errs = append(errs, fmt.Errorf("%s: %s overlaps %s", s.field, s.value, fields[i]))
			}
		}
		prefixes = append(prefixes, p)
		fields = append(fields, s.field)
	}

	if _, ok := validOutputBackends[cfg.StackOutputs.Backend]; !ok {
		errs = append(errs, fmt.Errorf("stack_outputs.backend: invalid value %q; valid values: file, s3", cfg.StackOutputs.Backend))
	}
	if cfg.StackOutputs.Backend == "s3" && cfg.StackOutputs.Bucket == "" {
		errs = append(errs, fmt.Errorf("stack_outputs.bucket: required for the s3 backend"))
	}

	if _, ok := validSecretBackends[cfg.Secrets.Backend]; !ok {
		errs = append(errs, fmt.Errorf("secrets.backend: invalid value %q; valid values: keyvault, kubernetes, memory", cfg.Secrets.Backend))
	}

	if cfg.Credentials.KeySize < 2048 || cfg.Credentials.KeySize%8 != 0 {
		errs = append(errs, fmt.Errorf("credentials.key_size: %d is not supported; use 2048 or more, in multiples of 8", cfg.Credentials.KeySize))
	}
	if cfg.Credentials.PasswordLength < 12 {
		errs = append(errs, fmt.Errorf("credentials.password_length: %d is too short; minimum 12", cfg.Credentials.PasswordLength))
	}

	return errs
}
