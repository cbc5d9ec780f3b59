// Package trie implements the persistent binary trie the state lives in.
//
// Every node carries the rent timestamp of its value plus the latest rent
// timestamp found anywhere below it. Tries are immutable values: Put, Delete
// and UpdateLastRentPaidTimestamp return a new version that shares every
// untouched subtree with the one it was derived from. Any number of versions
// may be read concurrently.
//
// All versions derived from one trie allocate from a single arena that is
// never pruned. Compact copies one version into an arena of its own so the
// superseded nodes can be collected once nothing refers to them.
package trie

import (
	"bytes"
	"errors"

	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
)

var (
	ErrEmptyKey    = errors.New("trie key must not be empty")
	ErrUnknownNode = errors.New("unknown trie node")
)

// Trie is one version of a trie.
type Trie struct {
	arena *arena
	root  nodeRef
}

// New creates an empty trie.
func New() *Trie {
	return &Trie{arena: newArena(), root: nilRef}
}

func (t *Trie) derive(root nodeRef) *Trie {
	if root == t.root {
		return t
	}
	return &Trie{arena: t.arena, root: root}
}

// IsEmpty reports whether the trie holds no value.
func (t *Trie) IsEmpty() bool {
	return t.root == nilRef
}

// Get returns the value stored under key.
func (t *Trie) Get(key []byte) ([]byte, bool) {
	n, ok := t.find(key)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), n.value...), true
}

// Has reports whether key holds a value.
func (t *Trie) Has(key []byte) bool {
	_, ok := t.find(key)
	return ok
}

// Find returns the node holding key.
func (t *Trie) Find(key []byte) (NodeView, bool) {
	n, ok := t.find(key)
	if !ok {
		return NodeView{}, false
	}
	return newNodeView(key, n), true
}

// LastRentPaidTimestamp returns the rent timestamp of the value under key.
func (t *Trie) LastRentPaidTimestamp(key []byte) (rentstamp.Timestamp, bool) {
	n, ok := t.find(key)
	if !ok {
		return rentstamp.Unset, false
	}
	return n.own, true
}

// RootTimestamp returns the latest rent timestamp in the whole trie.
func (t *Trie) RootTimestamp() rentstamp.Timestamp {
	if t.root == nilRef {
		return rentstamp.Unset
	}
	return t.arena.get(t.root).subtree
}

func (t *Trie) find(key []byte) (node, bool) {
	if len(key) == 0 {
		return node{}, false
	}
	path := keyToPath(key)
	ref := t.root
	for ref != nilRef {
		n := t.arena.get(ref)
		if !hasPrefix(path, n.path) {
			return node{}, false
		}
		path = path[len(n.path):]
		if len(path) == 0 {
			return n, n.hasValue()
		}
		ref = n.children[path[0]]
		path = path[1:]
	}
	return node{}, false
}

// Put stores value under key and returns the new version. An existing value
// keeps its rent timestamp; a new one starts Unset. A nil or empty value
// deletes the key.
func (t *Trie) Put(key, value []byte) (*Trie, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	if len(value) == 0 {
		return t.Delete(key)
	}
	return t.derive(t.put(t.root, keyToPath(key), append([]byte(nil), value...))), nil
}

func (t *Trie) put(ref nodeRef, path, value []byte) nodeRef {
	if ref == nilRef {
		return t.arena.alloc(node{
			path:     clonePath(path),
			value:    value,
			children: [2]nodeRef{nilRef, nilRef},
		})
	}

	n := t.arena.get(ref)
	common := commonPrefixLen(n.path, path)

	if common == len(n.path) {
		if common == len(path) {
			if bytes.Equal(n.value, value) {
				return ref
			}
			n.value = value
			return t.arena.alloc(n)
		}
		bit := path[common]
		child := t.put(n.children[bit], path[common+1:], value)
		if child == n.children[bit] {
			return ref
		}
		n.children[bit] = child
		return t.arena.alloc(n)
	}

	// The key leaves this node's path part way: split it.
	existingBit := n.path[common]
	n.path = clonePath(n.path[common+1:])
	existing := t.arena.alloc(n)

	branch := node{
		path:     clonePath(path[:common]),
		children: [2]nodeRef{nilRef, nilRef},
	}
	branch.children[existingBit] = existing
	if common == len(path) {
		branch.value = value
	} else {
		branch.children[path[common]] = t.arena.alloc(node{
			path:     clonePath(path[common+1:]),
			value:    value,
			children: [2]nodeRef{nilRef, nilRef},
		})
	}
	return t.arena.alloc(branch)
}

// Delete removes key and returns the new version. Deleting an absent key
// returns t itself.
func (t *Trie) Delete(key []byte) (*Trie, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	root, _ := t.delete(t.root, keyToPath(key))
	return t.derive(root), nil
}

func (t *Trie) delete(ref nodeRef, path []byte) (nodeRef, bool) {
	if ref == nilRef {
		return ref, false
	}
	n := t.arena.get(ref)
	if !hasPrefix(path, n.path) {
		return ref, false
	}
	if len(path) == len(n.path) {
		if !n.hasValue() {
			return ref, false
		}
		n.value = nil
		n.own = rentstamp.Unset
		return t.compact(n), true
	}

	bit := path[len(n.path)]
	child, changed := t.delete(n.children[bit], path[len(n.path)+1:])
	if !changed {
		return ref, false
	}
	n.children[bit] = child
	return t.compact(n), true
}

// compact stores n, first removing it if it holds nothing and merging it
// into its only child if it holds no value.
func (t *Trie) compact(n node) nodeRef {
	if n.hasValue() {
		return t.arena.alloc(n)
	}
	left, right := n.children[0], n.children[1]
	switch {
	case left == nilRef && right == nilRef:
		return nilRef
	case left != nilRef && right != nilRef:
		return t.arena.alloc(n)
	}

	bit := byte(0)
	only := left
	if only == nilRef {
		bit, only = 1, right
	}
	child := t.arena.get(only)
	child.path = joinPath(n.path, bit, child.path)
	return t.arena.alloc(child)
}

// UpdateLastRentPaidTimestamp sets the rent timestamp of the value under key
// and refreshes the subtree timestamps along its path. Updating a key that
// holds no value is a no-op: the same version is returned.
func (t *Trie) UpdateLastRentPaidTimestamp(key []byte, ts rentstamp.Timestamp) *Trie {
	if len(key) == 0 {
		return t
	}
	return t.derive(t.updateTimestamp(t.root, keyToPath(key), ts))
}

func (t *Trie) updateTimestamp(ref nodeRef, path []byte, ts rentstamp.Timestamp) nodeRef {
	if ref == nilRef {
		return ref
	}
	n := t.arena.get(ref)
	if !hasPrefix(path, n.path) {
		return ref
	}
	if len(path) == len(n.path) {
		if !n.hasValue() || n.own == ts {
			return ref
		}
		n.own = ts
		return t.arena.alloc(n)
	}

	bit := path[len(n.path)]
	child := t.updateTimestamp(n.children[bit], path[len(n.path)+1:], ts)
	if child == n.children[bit] {
		return ref
	}
	n.children[bit] = child
	return t.arena.alloc(n)
}

// Len returns the number of values in the trie.
func (t *Trie) Len() int {
	count := 0
	_ = t.Walk(func(NodeView) error {
		count++
		return nil
	})
	return count
}

// Compact returns this version in a fresh arena holding only its own nodes.
// The result is Equal to t; t and the versions sharing its arena are not
// affected.
func (t *Trie) Compact() *Trie {
	fresh := newArena()
	return &Trie{arena: fresh, root: t.copyInto(fresh, t.root)}
}

func (t *Trie) copyInto(dst *arena, ref nodeRef) nodeRef {
	if ref == nilRef {
		return nilRef
	}
	n := t.arena.get(ref)
	for i, c := range n.children {
		n.children[i] = t.copyInto(dst, c)
	}
	return dst.alloc(n)
}

// Equal reports whether both tries hold the same values with the same rent
// timestamps in the same shape.
func (t *Trie) Equal(o *Trie) bool {
	if o == nil {
		return false
	}
	return equalNodes(t.arena, t.root, o.arena, o.root)
}

func equalNodes(a *arena, ra nodeRef, b *arena, rb nodeRef) bool {
	if ra == nilRef || rb == nilRef {
		return ra == rb
	}
	if a == b && ra == rb {
		return true
	}
	na, nb := a.get(ra), b.get(rb)
	if !bytes.Equal(na.path, nb.path) ||
		na.hasValue() != nb.hasValue() ||
		!bytes.Equal(na.value, nb.value) ||
		na.own != nb.own ||
		na.subtree != nb.subtree {
		return false
	}
	return equalNodes(a, na.children[0], b, nb.children[0]) &&
		equalNodes(a, na.children[1], b, nb.children[1])
}
