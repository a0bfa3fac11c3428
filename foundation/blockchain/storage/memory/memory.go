// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"fmt"
	"sync"

	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/storage"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the storage.Storage
// interface.
type Memory[T any] struct {
	mu     sync.RWMutex
	blocks []database.Block[T]
}

// New constructs a Memory value for use.
func New[T any]() *Memory[T] {
	return &Memory[T]{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory[T]) Close() error {
	return nil
}

// Write takes the specified block and stores it in memory.
func (m *Memory[T]) Write(index uint64, block database.Block[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := uint64(len(m.blocks))
	switch {
	case index < l:
		m.blocks[index] = block
	case index == l:
		m.blocks = append(m.blocks, block)
	default:
		return fmt.Errorf("block is out of order, got %d, exp %d", index, l)
	}

	return nil
}

// GetBlock searches the blockchain to locate and return the contents of
// the specified block by index.
func (m *Memory[T]) GetBlock(index uint64) (database.Block[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index >= uint64(len(m.blocks)) {
		return database.Block[T]{}, storage.ErrEndOfChain
	}

	return m.blocks[index], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with genesis.
func (m *Memory[T]) ForEach() storage.Iterator[T] {
	return &memoryIterator[T]{storage: m}
}

// Reset will clear out the blockchain.
func (m *Memory[T]) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through and reading blocks in memory.
type memoryIterator[T any] struct {
	storage *Memory[T] // Access to the storage API.
	current uint64     // Current block index being iterated over.
	eoc     bool       // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block.
func (mi *memoryIterator[T]) Next() (database.Block[T], error) {
	if mi.eoc {
		return database.Block[T]{}, storage.ErrEndOfChain
	}

	block, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}
	mi.current++

	return block, err
}

// Done returns the end of chain value.
func (mi *memoryIterator[T]) Done() bool {
	return mi.eoc
}
