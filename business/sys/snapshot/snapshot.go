// Package snapshot opens the archive storage backend selected by
// configuration.
package snapshot

import (
	"fmt"

	"github.com/ardanlabs/archive/foundation/archive/storage"
	"github.com/ardanlabs/archive/foundation/archive/storage/disk"
	"github.com/ardanlabs/archive/foundation/archive/storage/memory"
	"github.com/ardanlabs/archive/foundation/archive/storage/pebble"
)

// Set of supported storage kinds.
const (
	KindNone   = ""
	KindMemory = "memory"
	KindDisk   = "disk"
	KindPebble = "pebble"
)

// Open constructs the storage for the specified kind. KindNone returns a nil
// storage and no error, meaning no snapshot is in use.
func Open(kind string, path string) (storage.Storage, error) {
	switch kind {
	case KindNone:
		return nil, nil

	case KindMemory:
		return memory.New(), nil

	case KindDisk:
		if path == "" {
			return nil, fmt.Errorf("disk storage requires a path")
		}
		d, err := disk.New(path)
		if err != nil {
			return nil, err
		}
		return d, nil

	case KindPebble:
		if path == "" {
			return nil, fmt.Errorf("pebble storage requires a path")
		}
		p, err := pebble.New(path)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}
