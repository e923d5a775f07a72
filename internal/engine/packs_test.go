package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

func TestNewPacks(t *testing.T) {
	assert.Equal(t, []string{"aks", "cloudpc", "devops"}, PackIDs())

	packs, err := NewPacks([]string{"cloudpc", "devops"}, models.Environment{})
	require.NoError(t, err)
	require.Len(t, packs, 2)
	assert.Equal(t, "cloudpc", packs[0].ID())

	_, err = NewPacks([]string{"aks", "aks"}, models.Environment{})
	assert.ErrorContains(t, err, "listed twice")
}

func TestDefaultPacks(t *testing.T) {
	assert.Empty(t, DefaultPacks(StageHub))
	assert.Equal(t, []string{"cloudpc", "devops"}, DefaultPacks(StageCloudPC))
}
