package trie

import (
	"sync"

	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
)

// nodeRef indexes a node in an arena.
type nodeRef int32

const nilRef nodeRef = -1

// node is an immutable trie node. Once allocated it is never written again;
// every change allocates replacements along the changed path.
type node struct {
	path     []byte
	value    []byte
	children [2]nodeRef

	// own is the rent timestamp of the value held by this node.
	own rentstamp.Timestamp
	// subtree is the latest rent timestamp in the subtree rooted here.
	subtree rentstamp.Timestamp
}

func (n *node) hasValue() bool {
	return n.value != nil
}

// arena holds the nodes of every version of a trie. Versions share it and
// refer to nodes by index, so an untouched subtree costs nothing to share.
type arena struct {
	mu    sync.RWMutex
	nodes []node
}

func newArena() *arena {
	return &arena{}
}

func (a *arena) get(ref nodeRef) node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.nodes[ref]
}

// alloc stores n with its subtree timestamp recomputed from its children.
func (a *arena) alloc(n node) nodeRef {
	a.mu.Lock()
	defer a.mu.Unlock()

	n.subtree = n.own
	for _, c := range n.children {
		if c != nilRef {
			n.subtree = rentstamp.Max(n.subtree, a.nodes[c].subtree)
		}
	}
	a.nodes = append(a.nodes, n)
	return nodeRef(len(a.nodes) - 1)
}

func (a *arena) size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.nodes)
}
