package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateCategories(t *testing.T) {
	candidates := CandidateCategories()
	require.Len(t, candidates, 9)
	assert.Equal(t, "Food", candidates[0].Value)
	assert.Equal(t, CategoryOther, candidates[len(candidates)-1].Value)

	for _, c := range candidates {
		assert.NotEmpty(t, c.Label)
		assert.NotEmpty(t, c.Value)
	}
}

func TestIsValidCategory(t *testing.T) {
	assert.True(t, IsValidCategory("Food"))
	assert.True(t, IsValidCategory(CategoryOther))
	assert.False(t, IsValidCategory("food"), "values are case-sensitive")
	assert.False(t, IsValidCategory("Gambling"))
	assert.False(t, IsValidCategory(""))
}
