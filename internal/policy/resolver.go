package policy

import "github.com/pankaj-dahiya-devops/azure-hub/internal/rules"

// ApplyRulesFile filters providers through cfg: packs disabled in the file
// are dropped, then every fragment declared in the file is appended in file
// order. The relative order of the surviving providers is preserved.
func ApplyRulesFile(providers []rules.FragmentProvider, cfg *RulesFile) []rules.FragmentProvider {
	if cfg == nil {
		return providers
	}

	var result []rules.FragmentProvider

	for _, p := range providers {
		packCfg, ok := cfg.Packs[p.ID()]

		// Pack-level disable
		if ok && packCfg.Enabled != nil && !*packCfg.Enabled {
			continue
		}

		result = append(result, p)
	}

	for _, f := range cfg.Fragments {
		result = append(result, rules.Static(f))
	}

	return result
}
