// Package pebble implements the ability to read and write archive blocks to
// a pebble key/value store.
package pebble

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/archive/foundation/archive/storage"
	"github.com/ardanlabs/archive/foundation/procedural"
	"github.com/cockroachdb/pebble"
)

// Keys are the prefix followed by the big endian index so the store iterates
// in index order.
var (
	prefix     = []byte("blk/")
	upperBound = []byte("blk0")
)

// Pebble represents the serialization implementation for reading and storing
// blocks in a pebble database. This implements the storage.Storage interface.
type Pebble struct {
	db *pebble.DB
}

// New opens, or creates, the pebble database at the specified path.
func New(dbPath string) (*Pebble, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble database: %w", err)
	}

	return &Pebble{db: db}, nil
}

// Close flushes and closes the database.
func (p *Pebble) Close() error {
	return p.db.Close()
}

// Write takes the specified block and stores it under its index.
func (p *Pebble) Write(block procedural.Block) error {
	if block.Index < 0 {
		return fmt.Errorf("%w: negative block index %d", procedural.ErrInvalidArgument, block.Index)
	}

	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return p.db.Set(key(block.Index), data, pebble.Sync)
}

// GetBlock returns the block stored for the specified index.
func (p *Pebble) GetBlock(index int64) (procedural.Block, error) {
	if index < 0 {
		return procedural.Block{}, storage.ErrNotFound
	}

	data, closer, err := p.db.Get(key(index))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return procedural.Block{}, storage.ErrNotFound
		}
		return procedural.Block{}, err
	}
	defer closer.Close()

	// The value is only valid until the closer is closed and Unmarshal
	// copies what it keeps.
	var block procedural.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return procedural.Block{}, fmt.Errorf("decoding block %d: %w", index, err)
	}

	return block, nil
}

// ForEach returns an iterator to walk through the stored blocks in index
// order.
func (p *Pebble) ForEach() storage.Iterator {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound,
	})
	if err != nil {
		return &pebbleIterator{err: err}
	}

	return &pebbleIterator{iter: iter, first: true}
}

// Reset deletes every stored block.
func (p *Pebble) Reset() error {
	return p.db.DeleteRange(prefix, upperBound, pebble.Sync)
}

func key(index int64) []byte {
	k := make([]byte, len(prefix)+8)
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], uint64(index))
	return k
}

// =============================================================================

// pebbleIterator represents the iteration implementation for walking
// through the database. This implements the storage.Iterator interface.
type pebbleIterator struct {
	iter  *pebble.Iterator
	first bool
	err   error
	eoa   bool
}

// Next retrieves the next block from the database. The underlying pebble
// iterator is closed once the end is reached.
func (pi *pebbleIterator) Next() (procedural.Block, error) {
	if pi.iter == nil {
		if pi.err != nil {
			err := pi.err
			pi.err = nil
			return procedural.Block{}, err
		}
		pi.eoa = true
	}

	if pi.eoa {
		return procedural.Block{}, storage.ErrEndOfArchive
	}

	var valid bool
	switch {
	case pi.first:
		pi.first = false
		valid = pi.iter.First()
	default:
		valid = pi.iter.Next()
	}

	if !valid {
		err := errors.Join(pi.iter.Error(), pi.iter.Close())
		pi.iter = nil

		// The error is reported before the end so a Done check can't hide it.
		if err != nil {
			return procedural.Block{}, err
		}

		pi.eoa = true
		return procedural.Block{}, storage.ErrEndOfArchive
	}

	var block procedural.Block
	if err := json.Unmarshal(pi.iter.Value(), &block); err != nil {
		return procedural.Block{}, fmt.Errorf("decoding block: %w", err)
	}

	return block, nil
}

// Done returns the end of archive value.
func (pi *pebbleIterator) Done() bool {
	return pi.eoa
}

// Close releases the underlying pebble iterator. The database can't be
// closed while an iterator is open.
func (pi *pebbleIterator) Close() error {
	pi.eoa = true

	if pi.iter == nil {
		return nil
	}

	iter := pi.iter
	pi.iter = nil

	return iter.Close()
}
