package state

import (
	"context"

	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/hashcash"
)

// MineBlock attempts to create a new block with a proper hash that can become
// the next block in the chain. The content and head are captured up front and
// the search runs without holding the lock. The state is not changed, the
// caller is expected to propose the block through MergeBlocks.
func (bc *Blockchain[TX, D]) MineBlock(ctx context.Context, hashRate float64) (database.Block[D], error) {
	bc.mu.Lock()
	content := bc.manager.DataToCommit()
	head := bc.blocks[len(bc.blocks)-1]
	difficulty := bc.difficulty
	bc.mu.Unlock()

	bc.evHandler("state: MineBlock: MINING: prevBlk[%s]: perform POW: difficulty[%d]", short(head.ID), difficulty)

	hashFn, err := database.Hasher(head.ID, difficulty, content)
	if err != nil {
		return database.Block[D]{}, err
	}

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	nonce, err := hashcash.FindNonce(ctx, hashFn, difficulty, hashRate)
	if err != nil {
		return database.Block[D]{}, err
	}

	block, err := database.NewBlock(head.ID, nonce, difficulty, content)
	if err != nil {
		return database.Block[D]{}, err
	}

	bc.evHandler("state: MineBlock: MINING: blk[%s]: nonce[%d]: solved", short(block.ID), nonce)

	return block, nil
}

// Candidate returns the adopted chain extended by the block.
func (bc *Blockchain[TX, D]) Candidate(block database.Block[D]) []database.Block[D] {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	blocks := make([]database.Block[D], len(bc.blocks), len(bc.blocks)+1)
	copy(blocks, bc.blocks)

	return append(blocks, block)
}
