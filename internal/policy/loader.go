package policy

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRulesFile reads and decodes a rules file. Only version 1 is accepted.
func LoadRulesFile(path string) (*RulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RulesFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, errors.New("unsupported rules file version")
	}

	if cfg.Packs == nil {
		cfg.Packs = make(map[string]PackConfig)
	}

	if cfg.Stages == nil {
		cfg.Stages = make(map[string]StageConfig)
	}

	return &cfg, nil
}
