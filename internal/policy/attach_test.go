package policy_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/policy"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

var hubPolicy = models.RootPolicy{Name: "policy", ResourceGroupName: "rg"}

func sampleSet(t *testing.T) models.RuleSet {
	t.Helper()
	set, err := rules.Compose([]models.RuleFragment{{
		Name: "f",
		NetworkRules: []models.NetworkRule{{
			Name:                 "dns",
			IPProtocols:          []models.NetworkProtocol{models.ProtocolUDP},
			SourceAddresses:      []string{"*"},
			DestinationAddresses: []string{"168.63.129.16"},
			DestinationPorts:     []string{"53"},
		}},
	}})
	require.NoError(t, err)
	return set
}

func TestAttach_ConflictThenDifferentPriority(t *testing.T) {
	a := policy.NewAttacher(policy.NewPriorityRegistry())
	set := sampleSet(t)

	first, err := a.Attach(hubPolicy, set, 300, "aks")
	require.NoError(t, err)
	assert.Equal(t, 300, first.Attachment.GroupPriority)

	_, err = a.Attach(hubPolicy, set, 300, "cloudpc")
	var conflict *policy.ConflictError
	require.True(t, errors.As(err, &conflict), "want *ConflictError, got %v", err)
	assert.Equal(t, 300, conflict.Priority)
	assert.Equal(t, "aks", conflict.Existing)
	assert.Equal(t, "cloudpc", conflict.Incoming)
	assert.Contains(t, conflict.Error(), "rg/policy")

	second, err := a.Attach(hubPolicy, set, 301, "cloudpc")
	require.NoError(t, err)
	assert.Equal(t, 301, second.Attachment.GroupPriority)
	assert.Equal(t, []int{300, 301}, a.Registry().Registered(hubPolicy))
}

func TestAttach_IntentDependsOnRootPolicy(t *testing.T) {
	a := policy.NewAttacher(policy.NewPriorityRegistry())

	h, err := a.Attach(hubPolicy, sampleSet(t), 300, "aks")
	require.NoError(t, err)

	assert.Equal(t, models.ResourceTypeRuleCollectionGroup, h.Intent.Type)
	assert.Equal(t, []string{hubPolicy.IntentName()}, h.Intent.Predecessors)
	assert.Equal(t, policy.IntentName(hubPolicy, "aks"), h.Intent.Name)

	root := policy.RootIntent(hubPolicy)
	assert.Equal(t, hubPolicy.IntentName(), root.Name)
	assert.True(t, root.External)
}

func TestAttach_SamePriorityOnOtherPolicyIsIndependent(t *testing.T) {
	a := policy.NewAttacher(policy.NewPriorityRegistry())
	set := sampleSet(t)
	other := models.RootPolicy{Name: "policy", ResourceGroupName: "rg-2"}

	_, err := a.Attach(hubPolicy, set, 300, "aks")
	require.NoError(t, err)
	_, err = a.Attach(other, set, 300, "aks")
	require.NoError(t, err)
}

func TestAttach_Validation(t *testing.T) {
	set := sampleSet(t)
	tests := []struct {
		name     string
		root     models.RootPolicy
		set      models.RuleSet
		priority int
		attName  string
	}{
		{name: "priority too low", root: hubPolicy, set: set, priority: 99, attName: "a"},
		{name: "priority too high", root: hubPolicy, set: set, priority: 65001, attName: "a"},
		{name: "empty rule set", root: hubPolicy, set: models.RuleSet{}, priority: 300, attName: "a"},
		{name: "empty name", root: hubPolicy, set: set, priority: 300, attName: " "},
		{name: "missing resource group", root: models.RootPolicy{Name: "p"}, set: set, priority: 300, attName: "a"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := policy.NewPriorityRegistry()
			_, err := policy.NewAttacher(reg).Attach(tc.root, tc.set, tc.priority, tc.attName)
			var verr *rules.ValidationError
			require.True(t, errors.As(err, &verr), "want *rules.ValidationError, got %v", err)
			assert.Empty(t, reg.Registered(tc.root), "rejected attachment must not claim a priority")
		})
	}
}

func TestDetach_AllowsRetry(t *testing.T) {
	a := policy.NewAttacher(policy.NewPriorityRegistry())
	set := sampleSet(t)

	h, err := a.Attach(hubPolicy, set, 300, "aks")
	require.NoError(t, err)
	assert.True(t, a.Detach(h))
	assert.False(t, a.Detach(h), "second detach is a no-op")

	_, err = a.Attach(hubPolicy, set, 300, "aks")
	require.NoError(t, err)
}

// TestAttach_ConcurrentSamePriority races many attachments for one slot;
// exactly one must win and every loser must get a ConflictError.
func TestAttach_ConcurrentSamePriority(t *testing.T) {
	a := policy.NewAttacher(policy.NewPriorityRegistry())
	set := sampleSet(t)

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Attach(hubPolicy, set, 300, fmt.Sprintf("att-%d", i))
			mu.Lock()
			defer mu.Unlock()
			var conflict *policy.ConflictError
			switch {
			case err == nil:
				wins++
			case errors.As(err, &conflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}
