package policy

import (
	"testing"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

func providerIDs(ps []rules.FragmentProvider) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID()
	}
	return ids
}

func TestApplyRulesFile(t *testing.T) {
	off := false
	on := true
	base := []rules.FragmentProvider{
		rules.Static(models.RuleFragment{Name: "cloudpc"}),
		rules.Static(models.RuleFragment{Name: "devops"}),
	}

	tests := []struct {
		name string
		cfg  *RulesFile
		want []string
	}{
		{name: "nil file", cfg: nil, want: []string{"cloudpc", "devops"}},
		{
			name: "pack disabled",
			cfg:  &RulesFile{Packs: map[string]PackConfig{"devops": {Enabled: &off}}},
			want: []string{"cloudpc"},
		},
		{
			name: "explicit enable keeps pack",
			cfg:  &RulesFile{Packs: map[string]PackConfig{"devops": {Enabled: &on}}},
			want: []string{"cloudpc", "devops"},
		},
		{
			name: "extra fragments appended in file order",
			cfg: &RulesFile{Fragments: []models.RuleFragment{
				{Name: "monitoring"},
				{Name: "backup"},
			}},
			want: []string{"cloudpc", "devops", "monitoring", "backup"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := providerIDs(ApplyRulesFile(base, tc.cfg))
			if len(got) != len(tc.want) {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("want %v, got %v", tc.want, got)
					break
				}
			}
		})
	}
}

func TestGroupPriority(t *testing.T) {
	cfg := &RulesFile{Stages: map[string]StageConfig{
		"cloudpc": {Priority: 310},
		"aks":     {},
	}}
	tests := []struct {
		stage string
		cfg   *RulesFile
		want  int
	}{
		{"cloudpc", cfg, 310},
		{"aks", cfg, 300},
		{"hub", cfg, 300},
		{"cloudpc", nil, 300},
	}
	for _, tc := range tests {
		if got := GroupPriority(tc.stage, 300, tc.cfg); got != tc.want {
			t.Errorf("GroupPriority(%q): want %d, got %d", tc.stage, tc.want, got)
		}
	}
}
