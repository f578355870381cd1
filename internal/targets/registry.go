// Package targets registers the tables an upload can be imported into.
// Each target file registers itself from init; import the package for its
// side effects to make every target available.
package targets

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Info contains display information about a target.
type Info struct {
	Key     string   `json:"key"`   // unique identifier: "cities"
	Group   string   `json:"group"` // grouping for listings: "Reference"
	Label   string   `json:"label"` // display name: "Cities"
	Table   string   `json:"table"` // destination table
	Columns []string `json:"columns"`
}

// add stores def. Panics if a target with the same key is already
// registered.
func add(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("target already registered: %s", def.Info.Key))
	}
	registry[def.Info.Key] = def
}

// Get returns a target by key.
func Get(key string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns every registered target sorted by group, then key.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})
	return result
}

// Count returns the number of registered targets.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
