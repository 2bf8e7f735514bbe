package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRoundTrip(t *testing.T) {
	dir := t.TempDir()

	reg, err := loadRegistry(dir)
	require.NoError(t, err)

	reg.put("u1", "a", "friends")
	reg.put("u1", "b", "colleagues")
	reg.put("u2", "c", "friends")
	require.NoError(t, reg.save())

	reloaded, err := loadRegistry(dir)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"friends": 1, "colleagues": 1}, reloaded.stats("u1"))
	assert.ElementsMatch(t, []string{"a"}, reloaded.idsByRelationship("u1", "friends"))

	user, ok := reloaded.findUser("c")
	require.True(t, ok)
	assert.Equal(t, "u2", user)

	_, ok = reloaded.findUser("missing")
	assert.False(t, ok)
}

func TestRegistryPutReplacesRelationship(t *testing.T) {
	reg, err := loadRegistry(t.TempDir())
	require.NoError(t, err)

	reg.put("u1", "a", "friends")
	reg.put("u1", "a", "colleagues")

	assert.Equal(t, map[string]int{"colleagues": 1}, reg.stats("u1"))
	assert.Empty(t, reg.idsByRelationship("u1", "friends"))
}

func TestRegistryDeleteUser(t *testing.T) {
	reg, err := loadRegistry(t.TempDir())
	require.NoError(t, err)

	reg.put("u1", "a", "friends")
	reg.put("u2", "b", "friends")
	reg.deleteUser("u1")

	assert.Empty(t, reg.stats("u1"))
	assert.Equal(t, map[string]int{"friends": 1}, reg.stats("u2"))
}

func TestRegistryMissingFileIsEmpty(t *testing.T) {
	reg, err := loadRegistry(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, reg.stats("anyone"))
}
