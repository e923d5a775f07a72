package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

func intent(name string, preds ...string) models.ResourceIntent {
	return models.ResourceIntent{Name: name, Type: "test", Predecessors: preds}
}

func names(in []models.ResourceIntent) []string {
	out := make([]string, len(in))
	for i, x := range in {
		out[i] = x.Name
	}
	return out
}

func TestOrder_PredecessorsFirst(t *testing.T) {
	g := New()
	// Added out of dependency order on purpose.
	require.NoError(t, g.Add(intent("group", "policy")))
	require.NoError(t, g.Add(intent("secret", "cred")))
	require.NoError(t, g.Add(intent("policy")))
	require.NoError(t, g.Add(intent("cred")))
	require.NoError(t, g.Add(intent("cluster", "cred", "group")))

	ordered, err := g.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{"policy", "cred", "group", "secret", "cluster"}, names(ordered))
}

func TestAdd_Rejects(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(intent("a")))
	assert.Error(t, g.Add(intent("a")))
	assert.Error(t, g.Add(models.ResourceIntent{Type: "x"}))
	assert.Equal(t, 1, g.Len())
}

func TestOrder_MissingPredecessor(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(intent("group", "policy")))

	_, err := g.Order()
	var missing *MissingPredecessorError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "policy", missing.Predecessor)
}

func TestOrder_Cycle(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(intent("root")))
	require.NoError(t, g.Add(intent("a", "b")))
	require.NoError(t, g.Add(intent("b", "a")))

	_, err := g.Order()
	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a", "b"}, cycle.Intents)
}

func TestChain(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(intent("policy")))
	require.NoError(t, g.Add(intent("unrelated")))
	require.NoError(t, g.Add(intent("group", "policy")))
	require.NoError(t, g.Add(intent("cluster", "group")))

	chain, err := g.Chain("cluster")
	require.NoError(t, err)
	assert.Equal(t, []string{"policy", "group", "cluster"}, names(chain))

	_, err = g.Chain("nope")
	assert.Error(t, err)

	got, ok := g.Get("group")
	assert.True(t, ok)
	assert.Equal(t, []string{"policy"}, got.Predecessors)
}
