package variant

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a fresh variant instance.
type Factory func() GameVariant

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a variant available by id. Variant packages call it from
// init; registering the same id twice panics.
func Register(id string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[id]; dup {
		panic("variant: Register called twice for " + id)
	}
	registry[id] = f
}

// New returns a fresh instance of the registered variant.
func New(id string) (GameVariant, error) {
	registryMu.RLock()
	f, ok := registry[id]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown variant: %s", id)
	}
	return f(), nil
}

// IDs lists the registered variant ids, sorted.
func IDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
