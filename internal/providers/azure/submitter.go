package azure

import (
	"context"

	"github.com/juju/errors"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// Submitter applies firewall policy and rule collection group intents through
// ARM. Intents of other types are produced and consumed elsewhere and are
// skipped.
type Submitter struct {
	policies FirewallPoliciesClient
	groups   RuleCollectionGroupsClient
}

// NewSubmitter returns a Submitter writing through policies and groups.
func NewSubmitter(policies FirewallPoliciesClient, groups RuleCollectionGroupsClient) *Submitter {
	return &Submitter{policies: policies, groups: groups}
}

// Submit applies intents in the order given, which must be dependency order.
// It stops at the first failure; resources created before it stay in place.
func (s *Submitter) Submit(ctx context.Context, intents []models.ResourceIntent) error {
	applied := 0
	for _, in := range intents {
		if in.External {
			continue
		}
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		var err error
		switch in.Type {
		case models.ResourceTypeFirewallPolicy:
			err = s.createPolicy(ctx, in)
		case models.ResourceTypeRuleCollectionGroup:
			err = s.createGroup(ctx, in)
		default:
			logger.Debugf("skipping intent %s of type %s", in.Name, in.Type)
			continue
		}
		if err != nil {
			return err
		}
		applied++
	}
	logger.Infof("applied %d firewall resources", applied)
	return nil
}

func (s *Submitter) createPolicy(ctx context.Context, in models.ResourceIntent) error {
	spec, ok := in.Properties.(models.FirewallPolicySpec)
	if !ok {
		return errors.NotValidf("intent %s properties %T", in.Name, in.Properties)
	}
	if s.policies == nil {
		return errors.NotSupportedf("creating firewall policy %q without a policies client", spec.Root.Name)
	}
	body, err := FirewallPolicy(spec)
	if err != nil {
		return errors.Trace(err)
	}
	logger.Infof("creating firewall policy %s in %s", spec.Root.Name, spec.Location)
	if _, err := s.policies.CreateOrUpdate(ctx, spec.Root.ResourceGroupName, spec.Root.Name, body); err != nil {
		return errors.Annotatef(err, "creating firewall policy %s", spec.Root.Key())
	}
	return nil
}

func (s *Submitter) createGroup(ctx context.Context, in models.ResourceIntent) error {
	att, ok := in.Properties.(models.PolicyAttachment)
	if !ok {
		return errors.NotValidf("intent %s properties %T", in.Name, in.Properties)
	}
	group, err := RuleCollectionGroup(att)
	if err != nil {
		return errors.Trace(err)
	}
	logger.Infof("creating rule collection group %q (priority %d) on %s",
		att.Name, att.GroupPriority, att.Root.Key())
	if _, err := s.groups.CreateOrUpdate(ctx, att.Root.ResourceGroupName, att.Root.Name, att.Name, group); err != nil {
		return errors.Annotatef(err, "creating rule collection group %q on %s", att.Name, att.Root.Key())
	}
	return nil
}
