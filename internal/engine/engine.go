// Package engine runs one deployment stage: it composes the stage's firewall
// rules, attaches them to the hub's root policy, prepares credentials and
// returns the resulting intents in dependency order.
package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/policy"
)

// Stage identifies a deployment stage.
type Stage string

const (
	StageHub     Stage = "hub"
	StageAKS     Stage = "aks"
	StageCloudPC Stage = "cloudpc"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatTable ReportFormat = "table"
)

// StageOptions configures a single stage run.
// It is the sole input to Engine.RunStage.
type StageOptions struct {
	Stage Stage

	// Packs overrides the stage's default rule packs when non-empty.
	Packs []string

	// RulesFile toggles packs, overrides priorities and adds fragments.
	// May be nil.
	RulesFile *policy.RulesFile

	// GroupPriority overrides the rule collection group priority. Zero means
	// the rules file value, then the stage default.
	GroupPriority int

	// AdditionalRoots are further root policies the same rule set is
	// attached to, e.g. a secondary hub.
	AdditionalRoots []models.RootPolicy

	// ACRName enables the private registry pull rule of the AKS pack.
	ACRName string

	// Apply submits the intents and publishes generated secrets. Without it
	// the run only plans.
	Apply bool
}

// Submitter hands intents, in dependency order, to the provisioning engine.
type Submitter interface {
	Submit(ctx context.Context, intents []models.ResourceIntent) error
}

// Engine is the central orchestration interface.
//
// Engine must not call cloud SDKs directly; it delegates to the stack output
// registry, the secret store and the Submitter.
type Engine interface {
	RunStage(ctx context.Context, opts StageOptions) (*models.StagePlan, error)
}
