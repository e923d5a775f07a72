package policy

import "github.com/pankaj-dahiya-devops/azure-hub/internal/models"

// RulesFile is the operator-authored firewall rules file. It toggles the
// built-in rule packs, overrides per-stage group priorities and contributes
// extra fragments without code changes.
type RulesFile struct {
	Version   int                    `yaml:"version"`
	Packs     map[string]PackConfig  `yaml:"packs"`
	Stages    map[string]StageConfig `yaml:"stages"`
	Fragments []models.RuleFragment  `yaml:"fragments"`
}

type PackConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

type StageConfig struct {
	Priority int `yaml:"priority,omitempty"`
}
