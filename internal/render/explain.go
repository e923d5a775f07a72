// Package render provides presentation-layer helpers for azhub CLI output.
// It is a pure rendering package: no graph logic, no cloud API calls.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// FindIntent returns the intent in intents named name. When no name matches
// exactly, a unique intent whose name ends in "/"+name or ":"+name is
// returned, so "dev-aks-fw-group" finds the full rule collection group node.
func FindIntent(intents []models.ResourceIntent, name string) (*models.ResourceIntent, error) {
	var matches []int
	for i := range intents {
		if intents[i].Name == name {
			return &intents[i], nil
		}
		if strings.HasSuffix(intents[i].Name, "/"+name) || strings.HasSuffix(intents[i].Name, ":"+name) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no intent named %q", name)
	case 1:
		return &intents[matches[0]], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = intents[m].Name
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", name, strings.Join(names, ", "))
	}
}

// RenderIntentChain writes the dependency chain ending at the last intent of
// chain, one intent per line in apply order, followed by the properties of
// the target.
//
// Example output:
//
//	INTENT Microsoft.Network/firewallPolicies/ruleCollectionGroups:dev-02-hub/dev-hub-fw-policy/dev-aks-fw-group
//	Depends on (1):
//
//	  1. Microsoft.Network/firewallPolicies:dev-02-hub/dev-hub-fw-policy (external)
//
//	Properties:
//	  name: dev-aks-fw-group
func RenderIntentChain(w io.Writer, chain []models.ResourceIntent) {
	if len(chain) == 0 {
		fmt.Fprintln(w, "No intent.")
		return
	}
	target := chain[len(chain)-1]
	deps := chain[:len(chain)-1]

	fmt.Fprintf(w, "INTENT %s\n", target.Name)
	fmt.Fprintf(w, "Type: %s\n", target.Type)
	if target.RetainOnDelete {
		fmt.Fprintln(w, "Retained on delete.")
	}
	fmt.Fprintf(w, "Depends on (%d):\n", len(deps))
	if len(deps) > 0 {
		fmt.Fprintln(w)
	}
	for i, d := range deps {
		marker := ""
		if d.External {
			marker = " (external)"
		}
		fmt.Fprintf(w, "  %d. %s%s\n", i+1, d.Name, marker)
	}

	props := flatten(target.Properties)
	if len(props) == 0 {
		return
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Properties:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, props[k])
	}
	if len(target.SecretOutputs) > 0 {
		fmt.Fprintf(w, "Secret outputs: %s\n", strings.Join(target.SecretOutputs, ", "))
	}
}

// flatten turns properties into dotted keys with scalar values. Nested
// objects are walked through their JSON form so typed structs and decoded
// maps render the same.
func flatten(props any) map[string]string {
	if props == nil {
		return nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return map[string]string{"": fmt.Sprintf("%v", props)}
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil
	}
	out := make(map[string]string)
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch t := v.(type) {
		case map[string]any:
			for k, child := range t {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, child)
			}
		case []any:
			if len(t) > 0 {
				if _, nested := t[0].(map[string]any); nested {
					out[prefix] = fmt.Sprintf("[%d items]", len(t))
					return
				}
			}
			parts := make([]string, len(t))
			for i, item := range t {
				parts[i] = fmt.Sprint(item)
			}
			out[prefix] = strings.Join(parts, ",")
		default:
			out[prefix] = fmt.Sprint(t)
		}
	}
	walk("", generic)
	return out
}

// WriteExplainJSON writes the chain as indented JSON to w.
//
// When chain is non-empty, the output is:
//
//	{"intent": {...}, "depends_on": [...]}
//
// When chain is empty, the output is:
//
//	{"error": "No intent named N"}
func WriteExplainJSON(w io.Writer, chain []models.ResourceIntent, name string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if len(chain) == 0 {
		return enc.Encode(map[string]string{
			"error": fmt.Sprintf("No intent named %s", name),
		})
	}
	deps := chain[:len(chain)-1]
	if deps == nil {
		deps = []models.ResourceIntent{}
	}
	return enc.Encode(map[string]any{
		"intent":     chain[len(chain)-1],
		"depends_on": deps,
	})
}
