// Package policy binds composed rule sets to root firewall policies as rule
// collection groups and loads the operator rules file.
package policy

import (
	"fmt"
	"strings"

	"github.com/juju/loggo"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

var logger = loggo.GetLogger("azhub.policy")

// Azure accepts rule collection group priorities in this range.
const (
	MinGroupPriority = 100
	MaxGroupPriority = 65000
)

// Attacher creates policy attachments, guarding group priorities with a
// PriorityRegistry.
type Attacher struct {
	registry *PriorityRegistry
}

// NewAttacher returns an Attacher backed by registry.
func NewAttacher(registry *PriorityRegistry) *Attacher {
	return &Attacher{registry: registry}
}

// NewDefaultAttacher returns an Attacher backed by the process-wide registry.
func NewDefaultAttacher() *Attacher {
	return NewAttacher(DefaultRegistry())
}

// Registry returns the registry the attacher claims priorities in.
func (a *Attacher) Registry() *PriorityRegistry {
	return a.registry
}

// Attach binds set to root at groupPriority under name.
//
// It returns a *rules.ValidationError when the inputs are malformed (empty
// root reference or name, empty rule set, priority outside 100-65000) and a
// *ConflictError when groupPriority is already held on root. On success the
// priority stays registered and the handle carries a rule collection group
// intent that depends on the root policy intent.
func (a *Attacher) Attach(root models.RootPolicy, set models.RuleSet, groupPriority int, name string) (*models.AttachmentHandle, error) {
	if err := validateAttachment(root, set, groupPriority, name); err != nil {
		return nil, err
	}

	if err := a.registry.Register(root, groupPriority, name); err != nil {
		logger.Warningf("attachment %q rejected: %v", name, err)
		return nil, err
	}
	logger.Debugf("attachment %q registered at priority %d on %s", name, groupPriority, root.Key())

	att := models.PolicyAttachment{
		Name:          name,
		Root:          root,
		GroupPriority: groupPriority,
		RuleSet:       set,
	}
	return &models.AttachmentHandle{
		Attachment: att,
		Intent: models.ResourceIntent{
			Name:         IntentName(root, name),
			Type:         models.ResourceTypeRuleCollectionGroup,
			Predecessors: []string{root.IntentName()},
			Properties:   att,
		},
	}, nil
}

// Detach releases the priority held by h so a retry of the same attachment
// is not blocked. It reports whether anything was released.
func (a *Attacher) Detach(h *models.AttachmentHandle) bool {
	if h == nil {
		return false
	}
	att := h.Attachment
	released := a.registry.Release(att.Root, att.GroupPriority, att.Name)
	if released {
		logger.Debugf("attachment %q released priority %d on %s", att.Name, att.GroupPriority, att.Root.Key())
	}
	return released
}

// RootIntent returns the external resource intent standing for root in the
// dependency graph. The policy is owned by the hub stage and never applied
// by an attaching stage.
func RootIntent(root models.RootPolicy) models.ResourceIntent {
	return models.ResourceIntent{
		Name:     root.IntentName(),
		Type:     models.ResourceTypeFirewallPolicy,
		External: true,
		Properties: map[string]string{
			"name":              root.Name,
			"resourceGroupName": root.ResourceGroupName,
		},
	}
}

// IntentName returns the graph node name of the rule collection group name
// attached to root.
func IntentName(root models.RootPolicy, name string) string {
	return fmt.Sprintf("%s:%s/%s", models.ResourceTypeRuleCollectionGroup, root.Key(), name)
}

func validateAttachment(root models.RootPolicy, set models.RuleSet, groupPriority int, name string) error {
	var problems []rules.Problem
	if strings.TrimSpace(name) == "" {
		problems = append(problems, rules.Problem{Reason: "attachment name is empty"})
	}
	if root.Name == "" || root.ResourceGroupName == "" {
		problems = append(problems, rules.Problem{Reason: fmt.Sprintf("attachment %q: root policy reference needs both name and resource group", name)})
	}
	if groupPriority < MinGroupPriority || groupPriority > MaxGroupPriority {
		problems = append(problems, rules.Problem{
			Reason: fmt.Sprintf("attachment %q: group priority %d out of range %d-%d", name, groupPriority, MinGroupPriority, MaxGroupPriority),
		})
	}
	if set.Empty() {
		problems = append(problems, rules.Problem{Reason: fmt.Sprintf("attachment %q: rule set has no collections", name)})
	}
	if len(problems) > 0 {
		return &rules.ValidationError{Problems: problems}
	}
	return nil
}
