// Package database handles the block model for the blockchain. It provides
// the identity rule for blocks and the checks required for a sequence of
// blocks to form a valid chain.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tcoin/blockchain/foundation/blockchain/hashcash"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

// GenesisDifficulty is the difficulty recorded in the genesis block. It is
// fixed and independent of the difficulty used for mining.
const GenesisDifficulty = 1

// Set of error variables for block validation.
var (
	ErrEmptyChain      = errors.New("chain has no blocks")
	ErrGenesisMismatch = errors.New("genesis block does not match")
)

// =============================================================================

// Block represents a group of data batched together. The content is owned
// by the transaction manager that produced it.
type Block[T any] struct {
	ID           string `json:"id"`           // Hash of the other fields of the block.
	PreviousHash string `json:"previousHash"` // Hash of the previous block in the chain.
	Nonce        uint64 `json:"nonce"`        // Value identified to solve the hash solution.
	Difficulty   uint32 `json:"difficulty"`   // Number of 0's needed to solve the hash solution.
	Content      T      `json:"content"`      // Data committed by this block.
}

// NewBlock constructs a block and assigns its id from the provided fields.
func NewBlock[T any](previousHash string, nonce uint64, difficulty uint32, content T) (Block[T], error) {
	hashFn, err := Hasher(previousHash, difficulty, content)
	if err != nil {
		return Block[T]{}, err
	}

	b := Block[T]{
		ID:           hashFn(nonce),
		PreviousHash: previousHash,
		Nonce:        nonce,
		Difficulty:   difficulty,
		Content:      content,
	}

	return b, nil
}

// Genesis constructs the genesis block for the specified content. Every
// node constructs the same block given the same content.
func Genesis[T any](content T) (Block[T], error) {
	return NewBlock("", 0, GenesisDifficulty, content)
}

// Hasher returns a function that produces the block id for any nonce given
// the remaining fields of a block. The content is serialized once so the
// function can be used inside the POW search.
func Hasher[T any](previousHash string, difficulty uint32, content T) (hashcash.HashFunc, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	diff := strconv.FormatUint(uint64(difficulty), 10)
	body := string(data)

	f := func(nonce uint64) string {
		return signature.HashString(previousHash + strconv.FormatUint(nonce, 10) + diff + body)
	}

	return f, nil
}

// Hash recomputes the id of the block from its fields.
func (b Block[T]) Hash() (string, error) {
	hashFn, err := Hasher(b.PreviousHash, b.Difficulty, b.Content)
	if err != nil {
		return "", err
	}

	return hashFn(b.Nonce), nil
}

// ValidateBlock takes a block and validates it against its parent to be
// included into the blockchain.
func (b Block[T]) ValidateBlock(previousBlock Block[T], evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%s]: check: block id matches its fields", short(b.ID))

	hash, err := b.Hash()
	if err != nil {
		return err
	}

	if hash != b.ID {
		return fmt.Errorf("block id doesn't match its fields, got %s, exp %s", b.ID, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: parent hash does match parent block", short(b.ID))

	if b.PreviousHash != previousBlock.ID {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.PreviousHash, previousBlock.ID)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: block hash has been solved", short(b.ID))

	if !hashcash.Verify(b.ID, b.Difficulty) {
		return fmt.Errorf("%s invalid block hash for difficulty %d", b.ID, b.Difficulty)
	}

	return nil
}

// =============================================================================

// TotalWork returns the cumulative work of the chain, the sum of the
// difficulty of every block.
func TotalWork[T any](blocks []Block[T]) uint64 {
	var work uint64
	for _, b := range blocks {
		work += uint64(b.Difficulty)
	}
	return work
}

// SameGenesis checks both chains start from the same genesis block.
func SameGenesis[T any](a []Block[T], b []Block[T]) error {
	if len(a) == 0 || len(b) == 0 {
		return ErrEmptyChain
	}

	if a[0].ID != b[0].ID {
		return ErrGenesisMismatch
	}

	return nil
}

// short trims a hash for logging.
func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
