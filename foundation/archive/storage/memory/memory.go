// Package memory implements the ability to read and write archive blocks to
// memory using a map.
package memory

import (
	"errors"
	"slices"
	"sync"

	"github.com/ardanlabs/archive/foundation/archive/storage"
	"github.com/ardanlabs/archive/foundation/procedural"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory. This implements the storage.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	blocks map[int64]procedural.Block
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		blocks: make(map[int64]procedural.Block),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified block and stores it in memory. Writing the same
// index twice replaces the block.
func (m *Memory) Write(block procedural.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[block.Index] = block

	return nil
}

// GetBlock returns the block stored for the specified index.
func (m *Memory) GetBlock(index int64) (procedural.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	block, exists := m.blocks[index]
	if !exists {
		return procedural.Block{}, storage.ErrNotFound
	}

	return block, nil
}

// ForEach returns an iterator to walk through the stored blocks in index
// order. Blocks written after the call are not seen by the iterator.
func (m *Memory) ForEach() storage.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	indexes := make([]int64, 0, len(m.blocks))
	for index := range m.blocks {
		indexes = append(indexes, index)
	}
	slices.Sort(indexes)

	return &memoryIterator{storage: m, indexes: indexes}
}

// Reset will clear out every stored block.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make(map[int64]procedural.Block)
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the blocks in memory. This implements the storage.Iterator
// interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	indexes []int64 // Indexes present when the iterator was created.
	current int     // Position in indexes of the next block.
	eoa     bool    // Represents the iterator is at the end of the archive.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (procedural.Block, error) {
	if mi.eoa || mi.current >= len(mi.indexes) {
		mi.eoa = true
		return procedural.Block{}, storage.ErrEndOfArchive
	}

	// Blocks removed since the iterator was created are skipped.
	for mi.current < len(mi.indexes) {
		block, err := mi.storage.GetBlock(mi.indexes[mi.current])
		mi.current++

		if errors.Is(err, storage.ErrNotFound) {
			continue
		}

		return block, err
	}

	mi.eoa = true
	return procedural.Block{}, storage.ErrEndOfArchive
}

// Done returns the end of archive value.
func (mi *memoryIterator) Done() bool {
	return mi.eoa
}

// Close ends the iteration.
func (mi *memoryIterator) Close() error {
	mi.eoa = true
	return nil
}
