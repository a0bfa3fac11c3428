package state

import (
	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
)

// Blocks returns a copy of the adopted chain starting with genesis.
func (bc *Blockchain[TX, D]) Blocks() []database.Block[D] {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	blocks := make([]database.Block[D], len(bc.blocks))
	copy(blocks, bc.blocks)

	return blocks
}

// Head returns the latest block of the adopted chain.
func (bc *Blockchain[TX, D]) Head() database.Block[D] {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.blocks[len(bc.blocks)-1]
}

// Genesis returns the first block of the chain.
func (bc *Blockchain[TX, D]) Genesis() database.Block[D] {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.blocks[0]
}

// Work returns the cumulative work of the adopted chain.
func (bc *Blockchain[TX, D]) Work() uint64 {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return database.TotalWork(bc.blocks)
}

// Pending returns the transactions waiting to be mined.
func (bc *Blockchain[TX, D]) Pending() D {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.manager.Pending()
}

// Difficulty returns the difficulty used for mining.
func (bc *Blockchain[TX, D]) Difficulty() uint32 {
	return bc.difficulty
}

// Query runs the function with the current manager while holding the lock.
// The manager must not be retained after the function returns.
func (bc *Blockchain[TX, D]) Query(fn func(m manager.Manager[TX, D])) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	fn(bc.manager)
}

// TransactionID returns the id of the transaction.
func (bc *Blockchain[TX, D]) TransactionID(tx TX) string {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.manager.TransactionID(tx)
}
