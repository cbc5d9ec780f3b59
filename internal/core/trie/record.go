package trie

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goStorageRent/internal/core/types/rentstamp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrCorruptNode is returned by Import when a record does not hash to the
// hash it was loaded under.
var ErrCorruptNode = errors.New("trie node does not match its hash")

// EmptyRoot is the hash of the empty trie.
var EmptyRoot = common.Hash{}

// Record is the storable form of a node. Children are referenced by hash;
// the subtree timestamp is not stored, it is recomputed on import.
type Record struct {
	Path      []byte
	Value     []byte
	Children  [2]common.Hash
	Timestamp int64
}

// hashedRecord is the RLP layout a node hash is computed over.
type hashedRecord struct {
	Path    []byte
	Value   []byte
	Left    common.Hash
	Right   common.Hash
	Paid    bool
	Seconds uint64
}

// Hash returns the Keccak-256 hash of the record's RLP encoding.
func (r Record) Hash() (common.Hash, error) {
	ts := rentstamp.FromRaw(r.Timestamp)
	seconds, paid := ts.Seconds()
	enc, err := rlp.EncodeToBytes(hashedRecord{
		Path:    r.Path,
		Value:   r.Value,
		Left:    r.Children[0],
		Right:   r.Children[1],
		Paid:    paid,
		Seconds: uint64(seconds),
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode trie node: %w", err)
	}
	return crypto.Keccak256Hash(enc), nil
}

// Hash returns the root hash of the trie.
func (t *Trie) Hash() (common.Hash, error) {
	return t.Export(func(common.Hash, Record) error { return nil })
}

// Export calls fn for every node, children before parents, and returns the
// root hash. Nodes shared within the version are exported once.
func (t *Trie) Export(fn func(common.Hash, Record) error) (common.Hash, error) {
	seen := make(map[nodeRef]common.Hash)
	return t.export(t.root, seen, fn)
}

func (t *Trie) export(ref nodeRef, seen map[nodeRef]common.Hash, fn func(common.Hash, Record) error) (common.Hash, error) {
	if ref == nilRef {
		return EmptyRoot, nil
	}
	if h, ok := seen[ref]; ok {
		return h, nil
	}

	n := t.arena.get(ref)
	rec := Record{
		Path:      n.path,
		Value:     n.value,
		Timestamp: n.own.Raw(),
	}
	for bit, child := range n.children {
		h, err := t.export(child, seen, fn)
		if err != nil {
			return common.Hash{}, err
		}
		rec.Children[bit] = h
	}

	h, err := rec.Hash()
	if err != nil {
		return common.Hash{}, err
	}
	if err := fn(h, rec); err != nil {
		return common.Hash{}, err
	}
	seen[ref] = h
	return h, nil
}

// Import rebuilds the trie with the given root hash from records returned by
// load. Every record is checked against its hash.
func Import(root common.Hash, load func(common.Hash) (Record, error)) (*Trie, error) {
	t := New()
	ref, err := t.importNode(root, load)
	if err != nil {
		return nil, err
	}
	t.root = ref
	return t, nil
}

func (t *Trie) importNode(h common.Hash, load func(common.Hash) (Record, error)) (nodeRef, error) {
	if h == EmptyRoot {
		return nilRef, nil
	}
	rec, err := load(h)
	if err != nil {
		return nilRef, fmt.Errorf("%w %s: %w", ErrUnknownNode, h.Hex(), err)
	}
	got, err := rec.Hash()
	if err != nil {
		return nilRef, err
	}
	if got != h {
		return nilRef, fmt.Errorf("%w: loaded %s as %s", ErrCorruptNode, got.Hex(), h.Hex())
	}

	n := node{
		path:  clonePath(rec.Path),
		own:   rentstamp.FromRaw(rec.Timestamp),
		value: nil,
	}
	if len(rec.Value) > 0 {
		n.value = append([]byte(nil), rec.Value...)
	}
	for bit, child := range rec.Children {
		ref, err := t.importNode(child, load)
		if err != nil {
			return nilRef, err
		}
		n.children[bit] = ref
	}
	return t.arena.alloc(n), nil
}
