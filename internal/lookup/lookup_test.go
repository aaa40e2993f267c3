package lookup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albionflip/flipperd/internal/lookup"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadItems(t *testing.T) {
	// Arrange
	path := writeFile(t, "items.json", `[
		{"id": 1, "unique_name": "T4_BAG", "display_name": "Adept's Bag", "enchant": 0},
		{"id": 2, "unique_name": "T5_SWORD", "display_name": "Expert's Broadsword", "enchant": 0},
		{"id": 3, "unique_name": "", "display_name": "orphan"}
	]`)

	// Act
	items, err := lookup.LoadItems(path)

	// Assert - records without a unique name are dropped
	require.NoError(t, err)
	assert.Equal(t, 2, items.Len())

	name, ok := items.DisplayName("T4_BAG")
	require.True(t, ok)
	assert.Equal(t, "Adept's Bag", name)

	_, ok = items.DisplayName("T9_NOPE")
	assert.False(t, ok)
}

func TestLoadItems_MissingFile(t *testing.T) {
	// Act
	_, err := lookup.LoadItems(filepath.Join(t.TempDir(), "nope.json"))

	// Assert
	assert.Error(t, err)
}

func TestLoadItems_MalformedJSON(t *testing.T) {
	// Arrange
	path := writeFile(t, "items.json", `{"not": "an array"}`)

	// Act
	_, err := lookup.LoadItems(path)

	// Assert
	assert.Error(t, err)
}

func TestLoadWorlds(t *testing.T) {
	// Arrange
	path := writeFile(t, "worlds.json", `{"3005": "Caerleon", "1002": "Bridgewatch", "42": ""}`)

	// Act
	worlds, err := lookup.LoadWorlds(path)

	// Assert
	require.NoError(t, err)

	name, ok := worlds.LocationName(3005)
	require.True(t, ok)
	assert.Equal(t, "Caerleon", name)

	// Blank names do not resolve.
	_, ok = worlds.LocationName(42)
	assert.False(t, ok)

	_, ok = worlds.LocationName(9999)
	assert.False(t, ok)
}

func TestEmptyTablesResolveNothing(t *testing.T) {
	// Act
	items := lookup.EmptyItems()
	worlds := lookup.EmptyWorlds()

	// Assert
	_, ok := items.DisplayName("T4_BAG")
	assert.False(t, ok)
	_, ok = worlds.LocationName(3005)
	assert.False(t, ok)
	assert.Zero(t, items.Len())
	assert.Zero(t, worlds.Len())
}
