package store

import (
	"github.com/google/uuid"
)

// ownProperty is one entry in a node's own-property table. The table is a
// slice rather than a map so enumeration preserves insertion order; lookups
// scan linearly, which is fine at the property counts delegation chains see
// in practice.
type ownProperty struct {
	key  string
	desc Descriptor
}

// Node is a uniquely identified record in a delegation chain. All access and
// mutation goes through the owning DelegationStore; Node itself only exposes
// its identity and current parent.
type Node struct {
	id     uuid.UUID
	store  *DelegationStore
	parent *Node
	props  []ownProperty
}

// ID returns the node's unique identifier.
func (n *Node) ID() uuid.UUID { return n.id }

// Parent returns the node's current delegation target, or nil for a root.
func (n *Node) Parent() *Node {
	n.store.mu.RLock()
	defer n.store.mu.RUnlock()
	return n.parent
}

// findOwn returns the index of key in the own-property table, or -1.
func (n *Node) findOwn(key string) int {
	for i := range n.props {
		if n.props[i].key == key {
			return i
		}
	}
	return -1
}

// setOwn installs or replaces an own property, appending on first definition
// so insertion order is preserved.
func (n *Node) setOwn(key string, desc Descriptor) {
	if i := n.findOwn(key); i >= 0 {
		n.props[i].desc = desc
		return
	}
	n.props = append(n.props, ownProperty{key: key, desc: desc})
}

// removeOwn deletes the own property at index i, preserving the order of the
// remaining entries.
func (n *Node) removeOwn(i int) {
	n.props = append(n.props[:i], n.props[i+1:]...)
}

// shortID is the id prefix used in log events and error messages.
func (n *Node) shortID() string {
	if n == nil {
		return "<nil>"
	}
	s := n.id.String()
	return s[:8]
}
