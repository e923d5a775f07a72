package rules

import (
	"fmt"
	"strings"
)

// Problem is a single validation failure. Rule is empty for problems that are
// not tied to one rule (for example an empty rule set).
type Problem struct {
	Fragment string `json:"fragment,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Reason   string `json:"reason"`
}

func (p Problem) String() string {
	switch {
	case p.Rule != "" && p.Fragment != "":
		return fmt.Sprintf("fragment %q rule %q: %s", p.Fragment, p.Rule, p.Reason)
	case p.Rule != "":
		return fmt.Sprintf("rule %q: %s", p.Rule, p.Reason)
	case p.Fragment != "":
		return fmt.Sprintf("fragment %q: %s", p.Fragment, p.Reason)
	default:
		return p.Reason
	}
}

// ValidationError reports malformed or colliding rule definitions. It is a
// caller-side authoring mistake and must never be retried.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid rule set: " + e.Problems[0].String()
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("invalid rule set (%d problems): %s", len(e.Problems), strings.Join(parts, "; "))
}

// RuleNames returns the distinct offending rule names in first-seen order.
func (e *ValidationError) RuleNames() []string {
	seen := make(map[string]struct{}, len(e.Problems))
	var names []string
	for _, p := range e.Problems {
		if p.Rule == "" {
			continue
		}
		if _, ok := seen[p.Rule]; ok {
			continue
		}
		seen[p.Rule] = struct{}{}
		names = append(names, p.Rule)
	}
	return names
}

// NewValidationError builds a ValidationError with a single problem.
func NewValidationError(fragment, rule, reason string) *ValidationError {
	return &ValidationError{Problems: []Problem{{Fragment: fragment, Rule: rule, Reason: reason}}}
}
