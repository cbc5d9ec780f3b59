package triestore

import (
	"fmt"

	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ugorji/go/codec"
)

var msgpack = &codec.MsgpackHandle{}

// nodeRecord is the stored layout of a trie node.
type nodeRecord struct {
	Path      []byte `codec:"p"`
	Value     []byte `codec:"v,omitempty"`
	Left      []byte `codec:"l,omitempty"`
	Right     []byte `codec:"r,omitempty"`
	Timestamp int64  `codec:"t"`
}

func childBytes(h common.Hash) []byte {
	if h == trie.EmptyRoot {
		return nil
	}
	return h.Bytes()
}

func childHash(b []byte) (common.Hash, error) {
	if len(b) == 0 {
		return trie.EmptyRoot, nil
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("child hash of %d bytes", len(b))
	}
	return common.BytesToHash(b), nil
}

func (s *Store) encode(rec trie.Record) ([]byte, error) {
	var buf []byte
	err := codec.NewEncoderBytes(&buf, msgpack).Encode(nodeRecord{
		Path:      rec.Path,
		Value:     rec.Value,
		Left:      childBytes(rec.Children[0]),
		Right:     childBytes(rec.Children[1]),
		Timestamp: rec.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	return s.compressor.Compress(buf)
}

func (s *Store) decode(data []byte) (trie.Record, error) {
	raw, err := s.compressor.Decompress(data)
	if err != nil {
		return trie.Record{}, err
	}
	var nr nodeRecord
	if err := codec.NewDecoderBytes(raw, msgpack).Decode(&nr); err != nil {
		return trie.Record{}, fmt.Errorf("failed to decode node: %w", err)
	}

	rec := trie.Record{
		Path:      nr.Path,
		Value:     nr.Value,
		Timestamp: nr.Timestamp,
	}
	if rec.Children[0], err = childHash(nr.Left); err != nil {
		return trie.Record{}, err
	}
	if rec.Children[1], err = childHash(nr.Right); err != nil {
		return trie.Record{}, err
	}
	return rec, nil
}
