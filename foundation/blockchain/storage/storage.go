// Package storage defines the behavior required to persist the chain a node
// has adopted so it can be reloaded on restart.
package storage

import (
	"errors"

	"github.com/tcoin/blockchain/foundation/blockchain/database"
)

// ErrEndOfChain is returned by an iterator when there are no more blocks.
var ErrEndOfChain = errors.New("end of chain")

// Storage interface represents the behavior required to be implemented by any
// package providing support for reading and writing the blockchain. Blocks
// are addressed by their index in the chain, genesis being 0.
type Storage[T any] interface {
	Write(index uint64, block database.Block[T]) error
	GetBlock(index uint64) (database.Block[T], error)
	ForEach() Iterator[T]
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator[T any] interface {
	Next() (database.Block[T], error)
	Done() bool
}

// =============================================================================

// ReadAll walks the storage from genesis and returns every block found.
func ReadAll[T any](strg Storage[T]) ([]database.Block[T], error) {
	var blocks []database.Block[T]

	iter := strg.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// Replace resets the storage and writes the full chain. The protocol always
// exchanges full chains, so a reorg replaces everything that was stored.
func Replace[T any](strg Storage[T], blocks []database.Block[T]) error {
	if err := strg.Reset(); err != nil {
		return err
	}

	for i, block := range blocks {
		if err := strg.Write(uint64(i), block); err != nil {
			return err
		}
	}

	return nil
}
