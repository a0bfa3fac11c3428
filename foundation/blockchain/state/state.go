// Package state is the core API for the blockchain and implements all the
// consensus rules. It owns the adopted chain and the transaction manager
// holding the state that chain produces.
package state

import (
	"errors"
	"sync"

	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/storage"
)

// Set of error variables for merging chains.
var (
	ErrNotEnoughWork = errors.New("chain does not have more work")
	ErrInvalidChain  = errors.New("invalid chain")
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config[TX any, D any] struct {
	Difficulty uint32                 // Difficulty of the blocks this node mines and accepts.
	Manager    manager.Manager[TX, D] // Strategy handling the content of the blocks.
	Storage    storage.Storage[D]     // Optional storage for the adopted chain.
	EvHandler  EventHandler
}

// Blockchain manages the chain adopted by the node. All changes to the chain
// and the manager happen under one lock, proof of work is done outside of it.
type Blockchain[TX any, D any] struct {
	mu         sync.Mutex
	difficulty uint32
	blocks     []database.Block[D]
	manager    manager.Manager[TX, D]
	storage    storage.Storage[D]
	evHandler  EventHandler
}

// New constructs a blockchain holding only the genesis block. If the storage
// holds a previously adopted chain it is replayed so the node resumes it.
func New[TX any, D any](cfg Config[TX, D]) (*Blockchain[TX, D], error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Every node constructs the same genesis from an empty manager.
	genesis, err := database.Genesis(cfg.Manager.Pending())
	if err != nil {
		return nil, err
	}

	bc := Blockchain[TX, D]{
		difficulty: cfg.Difficulty,
		blocks:     []database.Block[D]{genesis},
		manager:    cfg.Manager,
		storage:    cfg.Storage,
		evHandler:  ev,
	}

	if bc.storage == nil {
		return &bc, nil
	}

	// Load all existing blocks from storage and replay them. A chain that
	// can't be replayed is discarded.
	blocks, err := storage.ReadAll(bc.storage)
	if err != nil {
		ev("state: New: storage: read: ERROR: %s", err)
	}

	if len(blocks) > 1 {
		ev("state: New: replay %d blocks from storage", len(blocks))

		if _, err := bc.MergeBlocks(blocks); err != nil {
			ev("state: New: replay: discarding stored chain: %s", err)
		}
	}

	if len(bc.blocks) == 1 {
		if err := storage.Replace(bc.storage, bc.blocks); err != nil {
			return nil, err
		}
	}

	return &bc, nil
}

// Shutdown cleanly brings the blockchain down.
func (bc *Blockchain[TX, D]) Shutdown() error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.storage == nil {
		return nil
	}

	return bc.storage.Close()
}

// AddTransaction hands the transaction to the manager for validation. It
// returns false when the transaction was rejected or is already known.
func (bc *Blockchain[TX, D]) AddTransaction(tx TX) bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.manager.AddTransaction(tx)
}
