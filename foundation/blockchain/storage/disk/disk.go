// Package disk implements the ability to read and write blocks to disk
// writing each block to a separate file.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/storage"
)

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// storage.Storage interface.
type Disk[T any] struct {
	dbPath string
}

// New constructs a Disk value for use.
func New[T any](dbPath string) (*Disk[T], error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk[T]{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk[T]) Close() error {
	return nil
}

// Write takes the specified block and stores it on disk in a file labeled
// with the block index.
func (d *Disk[T]) Write(index uint64, block database.Block[T]) error {

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	// Create a new file for this block and name it based on the block index.
	f, err := os.OpenFile(d.getPath(index), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	// Write the new block to disk.
	if _, err := f.Write(data); err != nil {
		return err
	}

	return nil
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by index.
func (d *Disk[T]) GetBlock(index uint64) (database.Block[T], error) {

	// Open the block file for the specified index.
	f, err := os.OpenFile(d.getPath(index), os.O_RDONLY, 0600)
	if err != nil {
		return database.Block[T]{}, err
	}
	defer f.Close()

	// Decode the contents of the block.
	var block database.Block[T]
	if err := json.NewDecoder(f).Decode(&block); err != nil {
		return database.Block[T]{}, err
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with genesis.
func (d *Disk[T]) ForEach() storage.Iterator[T] {
	return &diskIterator[T]{disk: d}
}

// Reset will clear out the blockchain on disk.
func (d *Disk[T]) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return fmt.Errorf("remove %s: %w", d.dbPath, err)
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the specified block.
func (d *Disk[T]) getPath(index uint64) string {
	name := strconv.FormatUint(index, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk.
type diskIterator[T any] struct {
	disk    *Disk[T] // Access to the disk storage API.
	current uint64   // Current block index being iterated over.
	eoc     bool     // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk.
func (di *diskIterator[T]) Next() (database.Block[T], error) {
	if di.eoc {
		return database.Block[T]{}, storage.ErrEndOfChain
	}

	block, err := di.disk.GetBlock(di.current)
	if errors.Is(err, fs.ErrNotExist) {
		di.eoc = true
	}
	di.current++

	return block, err
}

// Done returns the end of chain value.
func (di *diskIterator[T]) Done() bool {
	return di.eoc
}
