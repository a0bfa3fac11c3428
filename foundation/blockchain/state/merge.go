package state

import (
	"fmt"

	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/storage"
)

// MergeBlocks considers adopting the candidate chain. The candidate must
// share our genesis block and carry strictly more work. Every block after
// genesis is validated and its content is replayed on a fresh manager. On
// success the candidate and the replayed manager become the node state and
// the pending transactions are offered to the new manager. On failure
// nothing changes and the reason is returned.
func (bc *Blockchain[TX, D]) MergeBlocks(candidate []database.Block[D]) (bool, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if err := database.SameGenesis(bc.blocks, candidate); err != nil {
		return false, err
	}

	localWork := database.TotalWork(bc.blocks)
	candidateWork := database.TotalWork(candidate)
	if localWork >= candidateWork {
		return false, fmt.Errorf("local[%d] candidate[%d]: %w", localWork, candidateWork, ErrNotEnoughWork)
	}

	bc.evHandler("state: MergeBlocks: validate: blocks[%d]: work[%d]", len(candidate), candidateWork)

	scratch := bc.manager.Clone()
	for i := 1; i < len(candidate); i++ {
		block := candidate[i]

		if block.Difficulty < bc.difficulty {
			return false, fmt.Errorf("%w: block %d: difficulty %d below %d", ErrInvalidChain, i, block.Difficulty, bc.difficulty)
		}

		if err := block.ValidateBlock(candidate[i-1], bc.evHandler); err != nil {
			return false, fmt.Errorf("%w: block %d: %w", ErrInvalidChain, i, err)
		}

		if !scratch.ApplyCommitted(block.Content) {
			return false, fmt.Errorf("%w: block %d: content rejected", ErrInvalidChain, i)
		}
	}

	// Whatever was pending on the old chain and is still valid on the new
	// one stays pending.
	scratch.ApplyToCommit(bc.manager.Pending())

	blocks := make([]database.Block[D], len(candidate))
	copy(blocks, candidate)

	bc.blocks = blocks
	bc.manager = scratch

	if bc.storage != nil {
		if err := storage.Replace(bc.storage, bc.blocks); err != nil {
			bc.evHandler("state: MergeBlocks: storage: ERROR: %s", err)
		}
	}

	head := bc.blocks[len(bc.blocks)-1]
	bc.evHandler("viewer: block: adopted: blk[%s]: height[%d]: work[%d]", short(head.ID), len(bc.blocks)-1, candidateWork)

	return true, nil
}

// short trims a hash for logging.
func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
