// Package disk implements the ability to read and write archive blocks to
// disk with one JSON file per block.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ardanlabs/archive/foundation/archive/storage"
	"github.com/ardanlabs/archive/foundation/procedural"
)

const ext = ".json"

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// storage.Storage interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use, creating the folder if needed.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("creating archive folder: %w", err)
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified block and stores it on disk in a file labeled
// with the block index.
func (d *Disk) Write(block procedural.Block) error {

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(d.getPath(block.Index), data, 0600)
}

// GetBlock opens the file for the specified index and decodes the block.
func (d *Disk) GetBlock(index int64) (procedural.Block, error) {
	f, err := os.Open(d.getPath(index))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return procedural.Block{}, storage.ErrNotFound
		}
		return procedural.Block{}, err
	}
	defer f.Close()

	var block procedural.Block
	if err := json.NewDecoder(f).Decode(&block); err != nil {
		return procedural.Block{}, fmt.Errorf("decoding block %d: %w", index, err)
	}

	return block, nil
}

// ForEach returns an iterator to walk through the blocks on disk in index
// order.
func (d *Disk) ForEach() storage.Iterator {
	indexes, err := d.indexes()
	return &diskIterator{disk: d, indexes: indexes, err: err}
}

// Reset removes every block file from the archive folder.
func (d *Disk) Reset() error {
	indexes, err := d.indexes()
	if err != nil {
		return err
	}

	for _, index := range indexes {
		if err := os.Remove(d.getPath(index)); err != nil {
			return err
		}
	}

	return nil
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(index int64) string {
	return filepath.Join(d.dbPath, strconv.FormatInt(index, 10)+ext)
}

// indexes returns the sorted indexes of the block files in the folder.
func (d *Disk) indexes() ([]int64, error) {
	entries, err := os.ReadDir(d.dbPath)
	if err != nil {
		return nil, err
	}

	var indexes []int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}

		index, err := strconv.ParseInt(strings.TrimSuffix(name, ext), 10, 64)
		if err != nil {
			continue
		}
		indexes = append(indexes, index)
	}
	slices.Sort(indexes)

	return indexes, nil
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the storage.Iterator
// interface.
type diskIterator struct {
	disk    *Disk   // Access to the disk storage API.
	indexes []int64 // Indexes on disk when the iterator was created.
	current int     // Position in indexes of the next block.
	err     error   // Failure reading the folder.
	eoa     bool    // Represents the iterator is at the end of the archive.
}

// Next retrieves the next block from disk.
func (di *diskIterator) Next() (procedural.Block, error) {
	if di.err != nil {
		err := di.err
		di.err = nil
		return procedural.Block{}, err
	}

	if di.eoa || di.current >= len(di.indexes) {
		di.eoa = true
		return procedural.Block{}, storage.ErrEndOfArchive
	}

	// Files removed since the iterator was created are skipped.
	for di.current < len(di.indexes) {
		block, err := di.disk.GetBlock(di.indexes[di.current])
		di.current++

		if errors.Is(err, storage.ErrNotFound) {
			continue
		}

		return block, err
	}

	di.eoa = true
	return procedural.Block{}, storage.ErrEndOfArchive
}

// Done returns the end of archive value.
func (di *diskIterator) Done() bool {
	return di.eoa
}

// Close ends the iteration.
func (di *diskIterator) Close() error {
	di.eoa = true
	return nil
}
