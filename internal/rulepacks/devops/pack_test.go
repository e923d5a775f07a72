package devops

import (
	"testing"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

func TestPack_NetworkOnly(t *testing.T) {
	env := models.Environment{Subnets: models.SubnetSpaces{DevOps: "192.168.32.128/27"}}
	f := New(env).Fragment()

	if len(f.ApplicationRules) != 0 {
		t.Errorf("devops pack has no application rules, got %d", len(f.ApplicationRules))
	}
	if got := f.NetworkRules[0].SourceAddresses[0]; got != "192.168.32.128/27" {
		t.Errorf("source: want devops subnet, got %q", got)
	}

	set, err := rules.Compose([]models.RuleFragment{f})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if set.Application != nil {
		t.Error("want no application collection")
	}
	if set.Network.Priority != rules.BaseCollectionPriority {
		t.Errorf("single-kind set: want %d, got %d", rules.BaseCollectionPriority, set.Network.Priority)
	}
}
