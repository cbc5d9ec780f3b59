package triestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goStorageRent/internal/core/trie"
	"github.com/LeJamon/goStorageRent/internal/storage/database"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ugorji/go/codec"
)

// Head names a saved trie version.
type Head struct {
	Root      common.Hash
	Block     uint64
	Timestamp int64
}

type headRecord struct {
	Root      []byte `codec:"root"`
	Block     uint64 `codec:"block"`
	Timestamp int64  `codec:"ts"`
}

// SetHead points name at head, replacing any previous head.
func (s *Store) SetHead(ctx context.Context, name string, head Head) error {
	if name == "" {
		return errors.New("head name cannot be empty")
	}
	var buf []byte
	err := codec.NewEncoderBytes(&buf, msgpack).Encode(headRecord{
		Root:      head.Root.Bytes(),
		Block:     head.Block,
		Timestamp: head.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to encode head %s: %w", name, err)
	}
	if err := s.db.Write(ctx, headKey(name), buf); err != nil {
		return fmt.Errorf("failed to write head %s: %w", name, err)
	}
	s.log.Debug("Updated head", "name", name, "root", head.Root, "block", head.Block)
	return nil
}

// Head returns the head saved under name.
func (s *Store) Head(ctx context.Context, name string) (Head, error) {
	data, err := s.db.Read(ctx, headKey(name))
	if errors.Is(err, database.ErrKeyNotFound) {
		return Head{}, fmt.Errorf("%w: %s", ErrHeadNotFound, name)
	}
	if err != nil {
		return Head{}, err
	}
	return decodeHead(data)
}

// Heads returns every saved head by name.
func (s *Store) Heads(ctx context.Context) (map[string]Head, error) {
	end := []byte{headPrefix[0] + 1}
	it, err := s.db.Iterator(ctx, headPrefix, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	heads := make(map[string]Head)
	for it.Next() {
		head, err := decodeHead(it.Value())
		if err != nil {
			return nil, err
		}
		heads[string(bytes.TrimPrefix(it.Key(), headPrefix))] = head
	}
	return heads, it.Error()
}

// SaveHead saves t and points name at its root.
func (s *Store) SaveHead(ctx context.Context, name string, t *trie.Trie, block uint64, timestamp int64) (Head, error) {
	root, err := s.Save(ctx, t)
	if err != nil {
		return Head{}, err
	}
	head := Head{Root: root, Block: block, Timestamp: timestamp}
	if err := s.SetHead(ctx, name, head); err != nil {
		return Head{}, err
	}
	return head, nil
}

func decodeHead(data []byte) (Head, error) {
	var hr headRecord
	if err := codec.NewDecoderBytes(data, msgpack).Decode(&hr); err != nil {
		return Head{}, fmt.Errorf("failed to decode head: %w", err)
	}
	if len(hr.Root) != common.HashLength {
		return Head{}, fmt.Errorf("failed to decode head: root of %d bytes", len(hr.Root))
	}
	return Head{
		Root:      common.BytesToHash(hr.Root),
		Block:     hr.Block,
		Timestamp: hr.Timestamp,
	}, nil
}
