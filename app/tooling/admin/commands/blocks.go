// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/storage"
	"github.com/tcoin/blockchain/foundation/blockchain/storage/disk"
)

// readRaw loads the stored chain without decoding the block content so it
// works for every transaction strategy.
func readRaw(dbPath string) ([]database.Block[json.RawMessage], error) {
	strg, err := disk.New[json.RawMessage](dbPath)
	if err != nil {
		return nil, err
	}
	defer strg.Close()

	blocks, err := storage.ReadAll[json.RawMessage](strg)
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		return nil, errors.New("no blocks stored")
	}

	return blocks, nil
}

// Blocks prints the stored chain.
func Blocks(dbPath string) error {
	blocks, err := readRaw(dbPath)
	if err != nil {
		return err
	}

	for i, b := range blocks {
		fmt.Printf("Block %d: %s\n", i, b.ID)
		fmt.Printf("  Previous:   %s\n", b.PreviousHash)
		fmt.Printf("  Nonce:      %d\n", b.Nonce)
		fmt.Printf("  Difficulty: %d\n", b.Difficulty)
		fmt.Printf("  Content:    %d bytes\n", len(b.Content))
	}

	fmt.Printf("\nTotal work: %d\n", database.TotalWork(blocks))

	return nil
}

// Verify checks every stored block is solved and links to its parent.
func Verify(dbPath string) error {
	blocks, err := readRaw(dbPath)
	if err != nil {
		return err
	}

	noop := func(v string, args ...any) {}
	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], noop); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}

	fmt.Printf("%d blocks verified\n", len(blocks))

	return nil
}
