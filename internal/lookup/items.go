// Package lookup loads the static item and location tables that resolve
// canonical market codes to display names. Both tables are optional: a
// missing or unreadable file yields an empty table and orders simply keep
// their raw codes as names.
package lookup

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/albionflip/flipperd/internal/domain"
)

// itemEntry is one record of the items.json table.
type itemEntry struct {
	ID         int    `json:"id"`
	UniqueName string `json:"unique_name"`
	Display    string `json:"display_name"`
	Enchant    int    `json:"enchant"`
}

// Items resolves canonical item codes to display names.
type Items struct {
	names map[string]string
}

// EmptyItems returns an Items table that resolves nothing.
func EmptyItems() *Items {
	return &Items{names: map[string]string{}}
}

// LoadItems reads an items.json table from path. The file is a JSON array of
// objects with unique_name and display_name fields.
func LoadItems(path string) (*Items, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lookup: read items table: %w", err)
	}

	var entries []itemEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("lookup: decode items table %s: %w", path, err)
	}

	names := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.UniqueName == "" {
			continue
		}
		names[e.UniqueName] = e.Display
	}
	return &Items{names: names}, nil
}

// DisplayName resolves an item code to its display name.
func (t *Items) DisplayName(itemID string) (string, bool) {
	name, ok := t.names[itemID]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Len returns the number of loaded items.
func (t *Items) Len() int { return len(t.names) }

// Compile-time interface check.
var _ domain.ItemLookup = (*Items)(nil)
