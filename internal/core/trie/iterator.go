package trie

import (
	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
)

// NodeView is a read-only view of a node holding a value.
type NodeView struct {
	key      []byte
	value    []byte
	lastPaid rentstamp.Timestamp
	subtree  rentstamp.Timestamp
}

func newNodeView(key []byte, n node) NodeView {
	return NodeView{
		key:      append([]byte(nil), key...),
		value:    n.value,
		lastPaid: n.own,
		subtree:  n.subtree,
	}
}

// Key returns the key the node is stored under.
func (v NodeView) Key() []byte { return append([]byte(nil), v.key...) }

// Value returns a copy of the node's value.
func (v NodeView) Value() []byte { return append([]byte(nil), v.value...) }

// Size is the byte length of the value, the base of its rent.
func (v NodeView) Size() int64 { return int64(len(v.value)) }

// LastRentPaidTimestamp returns the rent timestamp of the value.
func (v NodeView) LastRentPaidTimestamp() rentstamp.Timestamp { return v.lastPaid }

// SubtreeTimestamp returns the latest rent timestamp at or below the node.
func (v NodeView) SubtreeTimestamp() rentstamp.Timestamp { return v.subtree }

// Walk calls fn for every value in ascending key order. Iteration stops at
// the first error, which is returned.
func (t *Trie) Walk(fn func(NodeView) error) error {
	return t.walk(t.root, nil, fn)
}

func (t *Trie) walk(ref nodeRef, prefix []byte, fn func(NodeView) error) error {
	if ref == nilRef {
		return nil
	}
	n := t.arena.get(ref)
	path := append(clonePath(prefix), n.path...)
	if n.hasValue() {
		if err := fn(newNodeView(pathToKey(path), n)); err != nil {
			return err
		}
	}
	for bit, child := range n.children {
		if err := t.walk(child, append(clonePath(path), byte(bit)), fn); err != nil {
			return err
		}
	}
	return nil
}
