package policy

import (
	"errors"
	"fmt"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

// validStages is the set of stages that attach a rule collection group.
var validStages = map[string]struct{}{
	"hub":     {},
	"aks":     {},
	"cloudpc": {},
}

// Validate checks cfg for semantic correctness and returns all validation errors
// found. An empty slice means the rules file is valid.
//
// Checks performed:
//   - version must be 1
//   - pack names must appear in availablePacks
//   - stage names must be one of: hub, aks, cloudpc
//   - stage priority overrides must be within 100-65000 if set
//   - fragment names must be non-empty, unique and must not shadow a pack
//   - fragment rules must pass rules.Validate
//
// All errors are collected before returning; Validate never stops at the first error.
func Validate(cfg *RulesFile, availablePacks []string) []error {
	if cfg == nil {
		return []error{fmt.Errorf("rules file is nil")}
	}

	knownPacks := make(map[string]struct{}, len(availablePacks))
	for _, id := range availablePacks {
		knownPacks[id] = struct{}{}
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	for name := range cfg.Packs {
		if _, ok := knownPacks[name]; !ok {
			errs = append(errs, fmt.Errorf("packs.%s: unknown rule pack", name))
		}
	}

	for name, sc := range cfg.Stages {
		if _, ok := validStages[name]; !ok {
			errs = append(errs, fmt.Errorf("stages.%s: unknown stage; valid values: hub, aks, cloudpc", name))
		}
		if sc.Priority != 0 && (sc.Priority < MinGroupPriority || sc.Priority > MaxGroupPriority) {
			errs = append(errs, fmt.Errorf("stages.%s.priority: %d out of range %d-%d", name, sc.Priority, MinGroupPriority, MaxGroupPriority))
		}
	}

	seen := make(map[string]struct{}, len(cfg.Fragments))
	for i, f := range cfg.Fragments {
		switch {
		case f.Name == "":
			errs = append(errs, fmt.Errorf("fragments[%d]: name is empty", i))
		case hasKey(seen, f.Name):
			errs = append(errs, fmt.Errorf("fragments[%d]: duplicate fragment name %q", i, f.Name))
		case hasKey(knownPacks, f.Name):
			errs = append(errs, fmt.Errorf("fragments[%d]: name %q shadows a built-in rule pack", i, f.Name))
		}
		seen[f.Name] = struct{}{}
	}

	if err := rules.Validate(cfg.Fragments); err != nil {
		var verr *rules.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				errs = append(errs, fmt.Errorf("fragments: %s", p))
			}
		} else {
			errs = append(errs, err)
		}
	}

	return errs
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
