package naming

import "testing"

func TestName(t *testing.T) {
	tests := []struct {
		name, suffix string
		want         string
	}{
		{"03-aks", "", "dev-aks"},
		{"03-aks", "fw-group", "dev-aks-fw-group"},
		{"04-cloudPC", "ssh", "dev-cloudPC-ssh"},
		{"hub", "", "dev-hub"},
		{"2024-01-x", "", "dev-01-x"},
	}
	for _, tc := range tests {
		if got := Name("dev", tc.name, tc.suffix); got != tc.want {
			t.Errorf("Name(%q, %q): want %q, got %q", tc.name, tc.suffix, tc.want, got)
		}
	}
}

func TestGroupName(t *testing.T) {
	if got := GroupName("dev", "02-hub"); got != "dev-02-hub" {
		t.Errorf("want dev-02-hub, got %q", got)
	}
}
