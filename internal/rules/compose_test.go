package rules

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

func netRule(name string) models.NetworkRule {
	return models.NetworkRule{
		Name:                 name,
		IPProtocols:          []models.NetworkProtocol{models.ProtocolTCP},
		SourceAddresses:      []string{"192.168.31.0/24"},
		DestinationAddresses: []string{"AzureKeyVault"},
		DestinationPorts:     []string{"443"},
	}
}

func appRule(name string) models.ApplicationRule {
	return models.ApplicationRule{
		Name:            name,
		SourceAddresses: []string{"192.168.31.0/24"},
		TargetFQDNs:     []string{"mcr.microsoft.com"},
		Protocols:       []models.ApplicationProtocol{{Type: models.ApplicationProtocolHTTPS, Port: 443}},
	}
}

func ruleNames(c *models.RuleCollection) []string {
	if c == nil {
		return nil
	}
	var names []string
	for _, r := range c.NetworkRules {
		names = append(names, r.Name)
	}
	for _, r := range c.ApplicationRules {
		names = append(names, r.Name)
	}
	return names
}

// TestCompose_NetworkThenApplication covers the two-fragment scenario: one
// fragment contributes only a network rule, the other only an application
// rule. Network lands at 300, application at 301.
func TestCompose_NetworkThenApplication(t *testing.T) {
	set, err := Compose([]models.RuleFragment{
		{Name: "f1", NetworkRules: []models.NetworkRule{netRule("A")}},
		{Name: "f2", ApplicationRules: []models.ApplicationRule{appRule("B")}},
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if set.Network == nil || set.Application == nil {
		t.Fatalf("want both collections, got %+v", set)
	}
	if set.Network.Priority != 300 {
		t.Errorf("network priority: want 300, got %d", set.Network.Priority)
	}
	if set.Application.Priority != 301 {
		t.Errorf("application priority: want 301, got %d", set.Application.Priority)
	}
	if got := ruleNames(set.Network); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("network rules: want [A], got %v", got)
	}
	if got := ruleNames(set.Application); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("application rules: want [B], got %v", got)
	}
	for _, c := range set.Collections() {
		if c.Action != models.ActionAllow {
			t.Errorf("collection %s: want Allow action, got %q", c.Name, c.Action)
		}
	}
}

func TestCompose_SingleKindUsesBasePriority(t *testing.T) {
	tests := []struct {
		name      string
		fragments []models.RuleFragment
		wantNet   bool
		wantApp   bool
	}{
		{
			name:      "network only",
			fragments: []models.RuleFragment{{Name: "devops", NetworkRules: []models.NetworkRule{netRule("n1")}}},
			wantNet:   true,
		},
		{
			name:      "application only",
			fragments: []models.RuleFragment{{Name: "web", ApplicationRules: []models.ApplicationRule{appRule("a1")}}},
			wantApp:   true,
		},
		{
			name:      "no rules at all",
			fragments: []models.RuleFragment{{Name: "empty"}, {Name: "also-empty"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set, err := Compose(tc.fragments)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			if (set.Network != nil) != tc.wantNet {
				t.Errorf("network collection present = %v, want %v", set.Network != nil, tc.wantNet)
			}
			if (set.Application != nil) != tc.wantApp {
				t.Errorf("application collection present = %v, want %v", set.Application != nil, tc.wantApp)
			}
			for _, c := range set.Collections() {
				if c.Priority != BaseCollectionPriority {
					t.Errorf("single-kind collection %s: want priority %d, got %d", c.Name, BaseCollectionPriority, c.Priority)
				}
			}
			if !tc.wantNet && !tc.wantApp && !set.Empty() {
				t.Errorf("want empty set, got %+v", set)
			}
		})
	}
}

// TestCompose_PreservesFragmentOrder verifies that rules are concatenated in
// fragment order and, within a fragment, in declaration order.
func TestCompose_PreservesFragmentOrder(t *testing.T) {
	set, err := Compose([]models.RuleFragment{
		{Name: "cloudpc", NetworkRules: []models.NetworkRule{netRule("c1"), netRule("c2")}, ApplicationRules: []models.ApplicationRule{appRule("ca")}},
		{Name: "devops", NetworkRules: []models.NetworkRule{netRule("d1")}},
		{Name: "aks", NetworkRules: []models.NetworkRule{netRule("k1")}, ApplicationRules: []models.ApplicationRule{appRule("ka"), appRule("kb")}},
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got, want := ruleNames(set.Network), []string{"c1", "c2", "d1", "k1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("network order: want %v, got %v", want, got)
	}
	if got, want := ruleNames(set.Application), []string{"ca", "ka", "kb"}; !reflect.DeepEqual(got, want) {
		t.Errorf("application order: want %v, got %v", want, got)
	}
	if set.RuleCount() != 7 {
		t.Errorf("RuleCount: want 7, got %d", set.RuleCount())
	}
}

func TestCompose_DuplicateNetworkNameAcrossFragments(t *testing.T) {
	_, err := Compose([]models.RuleFragment{
		{Name: "f1", NetworkRules: []models.NetworkRule{netRule("x")}},
		{Name: "f2", NetworkRules: []models.NetworkRule{netRule("x")}},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), `"x"`) {
		t.Errorf("error should mention \"x\": %v", err)
	}
	if got := verr.RuleNames(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("RuleNames: want [x], got %v", got)
	}
}

// TestCompose_DuplicateNameAcrossKinds verifies that uniqueness spans both
// network and application rules.
func TestCompose_DuplicateNameAcrossKinds(t *testing.T) {
	_, err := Compose([]models.RuleFragment{
		{Name: "f1", NetworkRules: []models.NetworkRule{netRule("shared")}},
		{Name: "f2", ApplicationRules: []models.ApplicationRule{appRule("shared")}},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "shared") {
		t.Errorf("error should mention rule name: %v", verr)
	}
}

func TestCompose_DuplicateWithinOneFragment(t *testing.T) {
	_, err := Compose([]models.RuleFragment{
		{Name: "f1", ApplicationRules: []models.ApplicationRule{appRule("dup"), appRule("dup")}},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}
}

// TestCompose_DoesNotMutateInput guards the value-object contract: editing
// the composed output must not leak back into the authored fragment.
func TestCompose_DoesNotMutateInput(t *testing.T) {
	frag := models.RuleFragment{Name: "f", NetworkRules: []models.NetworkRule{netRule("n")}}
	set, err := Compose([]models.RuleFragment{frag})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	set.Network.NetworkRules[0].SourceAddresses[0] = "10.0.0.0/8"
	if frag.NetworkRules[0].SourceAddresses[0] != "192.168.31.0/24" {
		t.Error("Compose output aliases the input fragment")
	}
}

func TestCompose_InvalidReturnsEmptySet(t *testing.T) {
	bad := netRule("bad")
	bad.DestinationPorts = nil
	set, err := Compose([]models.RuleFragment{
		{Name: "ok", NetworkRules: []models.NetworkRule{netRule("good")}},
		{Name: "broken", NetworkRules: []models.NetworkRule{bad}},
	})
	if err == nil {
		t.Fatal("want error for rule without ports")
	}
	if !set.Empty() {
		t.Errorf("composition must be all-or-nothing, got %+v", set)
	}
}
