package scene

// registryEntry records the single strong owner of a live slot.
type registryEntry struct {
	gen   uint32
	owner string
}

// Registry maps node slots to their sole strong owner. Parent and child links in the
// graph never own a node; a node is owned once it is registered and stays owned until
// the graph releases it.
type Registry struct {
	entries map[uint32]registryEntry
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[uint32]registryEntry)}
}

// Owner returns the owner tag recorded for id.
//
// Parameters:
//   - id: the node handle
//
// Returns:
//   - string: the owner tag
//   - bool: false if id is not registered or has expired
func (r *Registry) Owner(id NodeID) (string, bool) {
	e, ok := r.entries[id.index]
	if !ok || e.gen != id.gen {
		return "", false
	}
	return e.owner, true
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	return len(r.entries)
}

func (r *Registry) register(id NodeID, owner string) bool {
	if _, ok := r.entries[id.index]; ok {
		return false
	}
	r.entries[id.index] = registryEntry{gen: id.gen, owner: owner}
	return true
}

func (r *Registry) release(id NodeID) {
	if e, ok := r.entries[id.index]; ok && e.gen == id.gen {
		delete(r.entries, id.index)
	}
}
