package lookup

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/albionflip/flipperd/internal/domain"
)

// Worlds resolves numeric location ids to display names. The worlds.json
// table maps stringified location ids to names.
type Worlds struct {
	names map[string]string
}

// EmptyWorlds returns a Worlds table that resolves nothing.
func EmptyWorlds() *Worlds {
	return &Worlds{names: map[string]string{}}
}

// LoadWorlds reads a worlds.json table from path.
func LoadWorlds(path string) (*Worlds, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lookup: read worlds table: %w", err)
	}

	var names map[string]string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("lookup: decode worlds table %s: %w", path, err)
	}
	return &Worlds{names: names}, nil
}

// LocationName resolves a location id to its display name.
func (t *Worlds) LocationName(locationID int) (string, bool) {
	name, ok := t.names[strconv.Itoa(locationID)]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Len returns the number of loaded locations.
func (t *Worlds) Len() int { return len(t.names) }

// Compile-time interface check.
var _ domain.LocationLookup = (*Worlds)(nil)
