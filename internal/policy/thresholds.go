package policy

// GroupPriority returns the configured rule collection group priority for a
// stage, or defaultValue when no override is present. It is safe to call
// with cfg == nil.
//
// Lookup order:
//  1. cfg == nil → defaultValue
//  2. cfg.Stages[stage] absent → defaultValue
//  3. cfg.Stages[stage].Priority zero → defaultValue
//  4. Otherwise → configured value
func GroupPriority(stage string, defaultValue int, cfg *RulesFile) int {
	if cfg == nil {
		return defaultValue
	}
	sc, ok := cfg.Stages[stage]
	if !ok || sc.Priority == 0 {
		return defaultValue
	}
	return sc.Priority
}
