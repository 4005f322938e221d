// Package catalog provides the initial stock table the coordinator's ledger
// is seeded with, either the built-in default or a YAML file.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultQuantity is the opening stock for every catalog item when no catalog
// file is supplied.
const defaultQuantity = 100

// items is the fixed catalog, grouped the same way the aisles are.
var items = []string{
	// bread
	"white_bread", "wheat_bread", "bagels", "waffles", "croissants", "baguette",
	// dairy
	"milk", "cheese", "yogurt", "butter", "cream", "eggs",
	// meat
	"chicken", "beef", "pork", "turkey", "fish", "lamb",
	// produce
	"tomatoes", "onions", "apples", "oranges", "bananas", "lettuce", "carrots", "potatoes",
	// party
	"soda", "paper_plates", "napkins", "cups", "balloons", "streamers",
}

// Default returns the built-in catalog with the default opening quantity for
// every item.
func Default() map[string]int {
	stock := make(map[string]int, len(items))
	for _, name := range items {
		stock[name] = defaultQuantity
	}
	return stock
}

// Items returns the catalog item names.
func Items() []string {
	return append([]string(nil), items...)
}

// File is the on-disk catalog format.
type File struct {
	InitialStock map[string]int `yaml:"initial_stock"`
}

// Load reads an initial stock table from a YAML file. Quantities must be
// non-negative.
func Load(path string) (map[string]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if len(f.InitialStock) == 0 {
		return nil, fmt.Errorf("catalog: %s has no initial_stock entries", path)
	}
	for name, qty := range f.InitialStock {
		if qty < 0 {
			return nil, fmt.Errorf("catalog: %s: negative quantity %d for %q", path, qty, name)
		}
	}
	return f.InitialStock, nil
}
