package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"protochain/pkg/errors"
)

// DefaultHopCap bounds chain traversals. Walking more than this many nodes
// fails with ChainTooDeep rather than silently reporting absence.
const DefaultHopCap = 1000

// Match pairs a found descriptor with the node that owns it. Owner may be an
// ancestor of the node the lookup started from.
type Match struct {
	Descriptor Descriptor
	Owner      *Node
}

// DelegationStore maintains a set of nodes linked by single-parent delegation
// pointers and performs chain-walking property lookup over them.
//
// All mutating operations serialize behind a write lock; read-only operations
// share a read lock. Accessor callbacks run while the lock is held and must
// not call back into the store.
type DelegationStore struct {
	mu     sync.RWMutex
	hopCap int
	strict bool
	log    zerolog.Logger
}

// Option configures a DelegationStore at construction.
type Option func(*DelegationStore)

// WithHopCap overrides the traversal bound. Values < 1 are ignored.
func WithHopCap(n int) Option {
	return func(s *DelegationStore) {
		if n >= 1 {
			s.hopCap = n
		}
	}
}

// WithStrict selects strict failure mode: rejected writes surface a
// ReadOnlyProperty error instead of a bare false.
func WithStrict(strict bool) Option {
	return func(s *DelegationStore) { s.strict = strict }
}

// WithLogger attaches a logger; mutations emit debug events through it.
func WithLogger(log zerolog.Logger) Option {
	return func(s *DelegationStore) { s.log = log }
}

// New constructs an empty store.
func New(opts ...Option) *DelegationStore {
	s := &DelegationStore{
		hopCap: DefaultHopCap,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HopCap returns the configured traversal bound.
func (s *DelegationStore) HopCap() int { return s.hopCap }

// Strict reports whether rejected writes raise errors.
func (s *DelegationStore) Strict() bool { return s.strict }

// Create makes a new empty node delegating to parent, or a root when parent
// is nil. A fresh node cannot be an ancestor of anything, so the only way its
// link could be malformed is a parent from another store.
func (s *DelegationStore) Create(parent *Node) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if parent != nil && parent.store != s {
		return nil, &errors.InvalidParentError{
			Parent: parent.shortID(),
			Msg:    fmt.Sprintf("node %s belongs to a different store", parent.shortID()),
		}
	}
	n := &Node{id: uuid.New(), store: s, parent: parent}
	s.log.Debug().Str("node", n.shortID()).Str("parent", parent.shortID()).Msg("node created")
	return n, nil
}

// SetParent reassigns node's delegation pointer. The new parent may be nil
// (detach to root). Fails with CyclicChain if newParent is node itself or if
// node already appears in newParent's chain; node.parent is unchanged on any
// failure.
func (s *DelegationStore) SetParent(node, newParent *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node.store != s || (newParent != nil && newParent.store != s) {
		return &errors.InvalidParentError{
			Parent: newParent.shortID(),
			Msg:    "nodes belong to a different store",
		}
	}
	if newParent != nil {
		if newParent == node {
			return &errors.CyclicChainError{
				Node:      node.shortID(),
				NewParent: newParent.shortID(),
				Msg:       fmt.Sprintf("node %s cannot delegate to itself", node.shortID()),
			}
		}
		anc, err := s.isAncestorLocked(node, newParent)
		if err != nil {
			return err
		}
		if anc {
			return &errors.CyclicChainError{
				Node:      node.shortID(),
				NewParent: newParent.shortID(),
				Msg: fmt.Sprintf("node %s is already an ancestor of %s",
					node.shortID(), newParent.shortID()),
			}
		}
	}
	node.parent = newParent
	s.log.Debug().Str("node", node.shortID()).Str("parent", newParent.shortID()).Msg("parent relinked")
	return nil
}

// GetOwn looks up key strictly in node's own-property table; the parent chain
// is never consulted. Returns (descriptor, true) if present.
func (s *DelegationStore) GetOwn(node *Node, key string) (Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := node.findOwn(key); i >= 0 {
		return node.props[i].desc, true
	}
	return nil, false
}

// HasOwn reports whether an own property with the given key exists.
func (s *DelegationStore) HasOwn(node *Node, key string) bool {
	_, ok := s.GetOwn(node, key)
	return ok
}

// Lookup walks node, then its parent, transitively up to the hop cap, and
// returns the first match. The nearest node wins: a key on node itself always
// shadows the same key on any ancestor. Absence is (Match{}, false, nil);
// exceeding the cap is a ChainTooDeep error, distinguishing "not present"
// from "chain malformed".
func (s *DelegationStore) Lookup(node *Node, key string) (Match, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(node, key)
}

func (s *DelegationStore) lookupLocked(node *Node, key string) (Match, bool, error) {
	visited := 0
	for cur := node; cur != nil; cur = cur.parent {
		visited++
		if visited > s.hopCap {
			return Match{}, false, &errors.ChainTooDeepError{
				Start: node.shortID(),
				Cap:   s.hopCap,
				Msg:   fmt.Sprintf("traversal from node %s exceeded %d hops", node.shortID(), s.hopCap),
			}
		}
		if i := cur.findOwn(key); i >= 0 {
			return Match{Descriptor: cur.props[i].desc, Owner: cur}, true, nil
		}
	}
	return Match{}, false, nil
}

// Get reads key starting at node, walking the chain. Data descriptors yield
// their value; accessor descriptors invoke their getter with the receiver
// (nil defaults to node), so a method found on an ancestor still operates on
// the original receiver. Absent keys and getterless accessors read as nil.
func (s *DelegationStore) Get(node *Node, key string, receiver *Node) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if receiver == nil {
		receiver = node
	}
	m, ok, err := s.lookupLocked(node, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	switch d := m.Descriptor.(type) {
	case DataDescriptor:
		return d.Value, nil
	case AccessorDescriptor:
		if d.Get == nil {
			return nil, nil
		}
		return d.Get(receiver)
	}
	return nil, nil
}

// Set writes key on behalf of receiver (nil defaults to node), starting the
// lookup at node.
//
//   - Nearest match is a non-writable data property: rejected. No own
//     property is created anywhere.
//   - Nearest match is an accessor with a setter: the setter runs bound to
//     the receiver.
//   - Nearest match is an accessor without a setter: rejected.
//   - Nearest match is a writable data property on the receiver itself: the
//     value is replaced in place, flags untouched.
//   - Nearest match is a writable data property on an ancestor, or the key is
//     absent from the whole chain: a fresh own data property with regular
//     assignment flags is installed on the receiver. The ancestor is never
//     mutated; this is shadowing.
//
// Rejections return (false, nil), or (false, *errors.ReadOnlyPropertyError)
// in strict mode.
func (s *DelegationStore) Set(node *Node, key string, value any, receiver *Node) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if receiver == nil {
		receiver = node
	}
	m, ok, err := s.lookupLocked(node, key)
	if err != nil {
		return false, err
	}
	if ok {
		switch d := m.Descriptor.(type) {
		case DataDescriptor:
			if !d.Writable {
				s.log.Debug().Str("node", node.shortID()).Str("key", key).Msg("write rejected: read-only")
				return false, s.readOnlyErr(key, m.Owner, "data property is not writable")
			}
			if m.Owner == receiver {
				d.Value = value
				receiver.props[receiver.findOwn(key)].desc = d
				return true, nil
			}
		case AccessorDescriptor:
			if d.Set == nil {
				s.log.Debug().Str("node", node.shortID()).Str("key", key).Msg("write rejected: no setter")
				return false, s.readOnlyErr(key, m.Owner, "accessor has no setter")
			}
			if err := d.Set(receiver, value); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	receiver.setOwn(key, DefaultDataDescriptor(value))
	s.log.Debug().Str("node", receiver.shortID()).Str("key", key).Msg("own property written")
	return true, nil
}

// readOnlyErr maps a rejected write to the configured failure mode.
func (s *DelegationStore) readOnlyErr(key string, owner *Node, detail string) error {
	if !s.strict {
		return nil
	}
	return &errors.ReadOnlyPropertyError{
		Key:   key,
		Owner: owner.shortID(),
		Msg:   fmt.Sprintf("cannot write %q owned by node %s: %s", key, owner.shortID(), detail),
	}
}

// DefineOwn installs descriptor directly as an own property of node,
// bypassing inherited-writability checks. Redefining an existing
// non-configurable descriptor fails with NotConfigurable unless the change is
// limited to the value of a still-writable data property.
func (s *DelegationStore) DefineOwn(node *Node, key string, desc Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := node.findOwn(key)
	if i < 0 {
		node.props = append(node.props, ownProperty{key: key, desc: desc})
		s.log.Debug().Str("node", node.shortID()).Str("key", key).Msg("own property defined")
		return nil
	}
	cur := node.props[i].desc
	if cur.IsConfigurable() {
		node.props[i].desc = desc
		s.log.Debug().Str("node", node.shortID()).Str("key", key).Msg("own property redefined")
		return nil
	}
	curData, curIsData := cur.(DataDescriptor)
	newData, newIsData := desc.(DataDescriptor)
	if curIsData && newIsData && curData.Writable &&
		newData.Writable == curData.Writable &&
		newData.Enumerable == curData.Enumerable &&
		newData.Configurable == curData.Configurable {
		node.props[i].desc = newData
		return nil
	}
	return &errors.NotConfigurableError{
		Key:  key,
		Node: node.shortID(),
		Msg:  fmt.Sprintf("cannot redefine non-configurable property %q on node %s", key, node.shortID()),
	}
}

// DeleteOwn removes the own property at key. Absent keys succeed as a no-op;
// non-configurable properties fail with NotConfigurable and stay in place.
func (s *DelegationStore) DeleteOwn(node *Node, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := node.findOwn(key)
	if i < 0 {
		return true, nil
	}
	if !node.props[i].desc.IsConfigurable() {
		return false, &errors.NotConfigurableError{
			Key:  key,
			Node: node.shortID(),
			Msg:  fmt.Sprintf("cannot delete non-configurable property %q on node %s", key, node.shortID()),
		}
	}
	node.removeOwn(i)
	s.log.Debug().Str("node", node.shortID()).Str("key", key).Msg("own property deleted")
	return true, nil
}

// EnumerateOwn returns node's enumerable own keys in insertion order.
func (s *DelegationStore) EnumerateOwn(node *Node) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(node.props))
	for _, p := range node.props {
		if p.desc.IsEnumerable() {
			keys = append(keys, p.key)
		}
	}
	return keys
}

// EnumerateChain walks the full chain from node to root and yields each
// enumerable key the first time its name is encountered, preserving per-level
// insertion order. A shadowing own key suppresses same-named ancestor keys
// even when the shadow itself is non-enumerable.
func (s *DelegationStore) EnumerateChain(node *Node) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	seen := make(map[string]struct{})
	visited := 0
	for cur := node; cur != nil; cur = cur.parent {
		visited++
		if visited > s.hopCap {
			return nil, &errors.ChainTooDeepError{
				Start: node.shortID(),
				Cap:   s.hopCap,
				Msg:   fmt.Sprintf("traversal from node %s exceeded %d hops", node.shortID(), s.hopCap),
			}
		}
		for _, p := range cur.props {
			if _, dup := seen[p.key]; dup {
				continue
			}
			seen[p.key] = struct{}{}
			if p.desc.IsEnumerable() {
				keys = append(keys, p.key)
			}
		}
	}
	return keys, nil
}

// IsAncestor reports whether candidate appears anywhere in of's parent chain.
// A node is not its own ancestor. The walk is capped like every traversal; a
// chain deeper than the cap reports false.
func (s *DelegationStore) IsAncestor(candidate, of *Node) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	anc, _ := s.isAncestorLocked(candidate, of)
	return anc
}

func (s *DelegationStore) isAncestorLocked(candidate, of *Node) (bool, error) {
	visited := 0
	for cur := of.parent; cur != nil; cur = cur.parent {
		visited++
		if visited > s.hopCap {
			return false, &errors.ChainTooDeepError{
				Start: of.shortID(),
				Cap:   s.hopCap,
				Msg:   fmt.Sprintf("ancestry walk from node %s exceeded %d hops", of.shortID(), s.hopCap),
			}
		}
		if cur == candidate {
			return true, nil
		}
	}
	return false, nil
}
