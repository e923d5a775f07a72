// Package stackref reads outputs published by earlier deployment stages.
package stackref

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// Outputs are the raw outputs of one stage keyed by output name.
type Outputs map[string]json.RawMessage

// Decode unmarshals the outputs into v as if they were one JSON object.
func (o Outputs) Decode(v any) error {
	data, err := json.Marshal(o)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(json.Unmarshal(data, v))
}

// Registry is a read-only lookup from a stage name to its outputs. A stage
// that has not published anything yields an error satisfying
// errors.Is(err, errors.NotFound).
type Registry interface {
	Outputs(ctx context.Context, stage string) (Outputs, error)
}

// Publisher stores the outputs of a stage.
type Publisher interface {
	Publish(ctx context.Context, stage string, outputs Outputs) error
}

// StageName returns the fully qualified reference of a stage,
// "<organization>/<project>/<stack>".
func StageName(organization, project, stack string) string {
	return fmt.Sprintf("%s/%s/%s", organization, project, stack)
}

// ValidateStageName rejects names that are empty or would escape a storage
// prefix.
func ValidateStageName(stage string) error {
	if stage == "" {
		return errors.NotValidf("empty stage name")
	}
	for _, part := range strings.Split(stage, "/") {
		if part == "" || part == "." || part == ".." {
			return errors.NotValidf("stage name %q", stage)
		}
	}
	return nil
}

// HubVnet reads the hub stage outputs. The firewall policy and resource
// group names must be present since every attaching stage needs them.
func HubVnet(ctx context.Context, reg Registry, stage string) (models.HubVnetOutput, error) {
	var out models.HubVnetOutput
	raw, err := reg.Outputs(ctx, stage)
	if err != nil {
		return out, errors.Annotatef(err, "reading hub outputs from %q", stage)
	}
	if err := raw.Decode(&out); err != nil {
		return out, errors.Annotatef(err, "decoding hub outputs from %q", stage)
	}
	if out.FirewallPolicy.Name == "" || out.RsGroup.Name == "" {
		return out, errors.NotValidf("hub outputs of %q without firewall policy or resource group", stage)
	}
	return out, nil
}

// Shared reads the shared stage outputs.
func Shared(ctx context.Context, reg Registry, stage string) (models.SharedStackOutput, error) {
	var out models.SharedStackOutput
	raw, err := reg.Outputs(ctx, stage)
	if err != nil {
		return out, errors.Annotatef(err, "reading shared outputs from %q", stage)
	}
	if err := raw.Decode(&out); err != nil {
		return out, errors.Annotatef(err, "decoding shared outputs from %q", stage)
	}
	return out, nil
}

// Encode converts a typed output struct into Outputs for publishing.
func Encode(v any) (Outputs, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var out Outputs
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Trace(err)
	}
	return out, nil
}
