package trie

import (
	"fmt"

	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
)

// InvariantError reports a node that breaks the shape or timestamp rules.
type InvariantError struct {
	Path        []byte
	Description string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation at path %v: %s", e.Path, e.Description)
}

// Invariants checks the whole trie and returns the first violation found:
//   - a node's subtree timestamp is the latest of its own and its children's
//   - a node without a value carries no rent timestamp
//   - a node without a value below the root has two children
//   - every value sits on a whole-byte key
func (t *Trie) Invariants() error {
	if t.root == nilRef {
		return nil
	}
	_, err := t.checkNode(t.root, nil, true)
	return err
}

// checkNode returns the latest timestamp found in the subtree.
func (t *Trie) checkNode(ref nodeRef, prefix []byte, isRoot bool) (rentstamp.Timestamp, error) {
	n := t.arena.get(ref)
	path := append(clonePath(prefix), n.path...)
	fail := func(format string, args ...any) (rentstamp.Timestamp, error) {
		return rentstamp.Unset, &InvariantError{Path: path, Description: fmt.Sprintf(format, args...)}
	}

	latest := rentstamp.Unset
	if n.hasValue() {
		if len(path)%8 != 0 {
			return fail("value on a %d-bit path", len(path))
		}
		latest = n.own
	} else if n.own.IsSet() {
		return fail("node without value has rent timestamp %s", n.own)
	}

	children := 0
	for bit, child := range n.children {
		if child == nilRef {
			continue
		}
		children++
		ts, err := t.checkNode(child, append(clonePath(path), byte(bit)), false)
		if err != nil {
			return rentstamp.Unset, err
		}
		latest = rentstamp.Max(latest, ts)
	}
	if !n.hasValue() && !isRoot && children < 2 {
		return fail("node without value has %d children", children)
	}
	if !n.hasValue() && children == 0 {
		return fail("empty node")
	}
	if n.subtree != latest {
		return fail("subtree timestamp %s, latest below is %s", n.subtree, latest)
	}
	return latest, nil
}
