package engine

import (
	"github.com/pankaj-dahiya-devops/azure-hub/internal/config"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rulepacks/aks"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rulepacks/cloudpc"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rulepacks/devops"
)

// workload is a credentialed resource a stage declares: an SSH credential
// plus the resource that consumes it.
type workload struct {
	// credential is the suffix of the credential name, "<stack>-<group>-<suffix>".
	credential string
	// resource is the suffix of the consuming resource name.
	resource     string
	resourceType string
}

type preset struct {
	group     func(config.GroupsConfig) string
	packs     []string
	priority  int
	workloads []workload
}

// Stage defaults. The hub owns the root policy and attaches nothing unless
// packs are requested; the AKS and CloudPC spokes attach their own groups.
var presets = map[Stage]preset{
	StageHub: {
		group:    func(g config.GroupsConfig) string { return g.Hub },
		priority: 300,
	},
	StageAKS: {
		group:    func(g config.GroupsConfig) string { return g.AKS },
		packs:    []string{aks.ID},
		priority: 300,
		workloads: []workload{
			{credential: "ssh", resource: "cluster", resourceType: models.ResourceTypeManagedCluster},
		},
	},
	StageCloudPC: {
		group:    func(g config.GroupsConfig) string { return g.CloudPC },
		packs:    []string{cloudpc.ID, devops.ID},
		priority: 301,
		workloads: []workload{
			{credential: "vm", resource: "vm", resourceType: models.ResourceTypeVirtualMachine},
		},
	},
}

// Stages returns the known stages in deployment order.
func Stages() []Stage {
	return []Stage{StageHub, StageAKS, StageCloudPC}
}

// DefaultPacks returns the rule packs a stage attaches by default.
func DefaultPacks(stage Stage) []string {
	return append([]string(nil), presets[stage].packs...)
}
