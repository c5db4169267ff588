// Package storage defines the behavior for keeping a materialized snapshot
// of archive history, so a range of blocks can be exported once and then
// served or audited without regenerating it.
package storage

import (
	"errors"

	"github.com/ardanlabs/archive/foundation/procedural"
)

// ErrNotFound is returned when a block is not part of the snapshot.
var ErrNotFound = errors.New("block not found")

// ErrEndOfArchive is returned by an iterator that has no more blocks.
var ErrEndOfArchive = errors.New("end of archive")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading archive blocks.
type Storage interface {
	Write(block procedural.Block) error
	GetBlock(index int64) (procedural.Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks in index order. Close
// must be called when the caller stops before the end, calling it more than
// once is allowed.
type Iterator interface {
	Next() (procedural.Block, error)
	Done() bool
	Close() error
}

// Collect walks the iterator and returns every block it produces.
func Collect(iter Iterator) ([]procedural.Block, error) {
	defer iter.Close()

	var blocks []procedural.Block
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
