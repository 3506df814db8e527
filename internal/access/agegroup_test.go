package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllAgeGroups(t *testing.T) {
	groups := AllAgeGroups()
	assert.Len(t, groups, int(numAgeGroups))
	assert.Contains(t, groups, Newborn)
	assert.Contains(t, groups, Over65)
}

func TestAllBut(t *testing.T) {
	groups := AllBut(Newborn, Kinder)
	assert.Len(t, groups, int(numAgeGroups)-2)
	assert.NotContains(t, groups, Newborn)
	assert.NotContains(t, groups, Kinder)
	assert.Contains(t, groups, ChildPrimary)

	assert.Len(t, AllBut(), int(numAgeGroups), "empty exclusion returns everything")
}

func TestParseAgeGroup(t *testing.T) {
	for _, g := range AllAgeGroups() {
		parsed, err := ParseAgeGroup(g.String())
		require.NoError(t, err)
		assert.Equal(t, g, parsed)
	}

	_, err := ParseAgeGroup("toddler")
	assert.Error(t, err)
}

func TestParseServiceType(t *testing.T) {
	for _, s := range AllServiceTypes() {
		parsed, err := ParseServiceType(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
		assert.NotEmpty(t, s.Label())
		assert.NotEmpty(t, s.Area())
		assert.NotEmpty(t, s.DataSource())
	}

	_, err := ParseServiceType("playground")
	assert.Error(t, err)
}
