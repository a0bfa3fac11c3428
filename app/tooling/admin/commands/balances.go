package commands

import (
	"fmt"
	"sort"

	"github.com/tcoin/blockchain/foundation/blockchain/genesis"
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/state"
	"github.com/tcoin/blockchain/foundation/blockchain/storage"
	"github.com/tcoin/blockchain/foundation/blockchain/storage/disk"
	"github.com/tcoin/blockchain/foundation/blockchain/storage/memory"
	"github.com/tcoin/blockchain/foundation/blockchain/utxo"
)

// Balances replays the stored utxo chain and prints the committed balances.
func Balances(args []string, dbPath string, genesisPath string) error {
	var onlyKey string
	if len(args) == 3 {
		onlyKey = args[2]
	}

	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return err
	}

	strg, err := disk.New[[]utxo.Transaction](dbPath)
	if err != nil {
		return err
	}
	defer strg.Close()

	blocks, err := storage.ReadAll[[]utxo.Transaction](strg)
	if err != nil {
		return err
	}

	// Replay from a copy so the stored chain is never touched.
	mem := memory.New[[]utxo.Transaction]()
	if err := storage.Replace[[]utxo.Transaction](mem, blocks); err != nil {
		return err
	}

	bc, err := state.New(state.Config[utxo.Transaction, []utxo.Transaction]{
		Difficulty: gen.Difficulty,
		Manager:    utxo.New(utxo.Config{MiningReward: gen.MiningReward}),
		Storage:    mem,
	})
	if err != nil {
		return err
	}
	defer bc.Shutdown()

	fmt.Printf("Head: %s\n\n", bc.Head().ID)

	balances := make(map[string]uint64)
	bc.Query(func(m manager.Manager[utxo.Transaction, []utxo.Transaction]) {
		mgr := m.(*utxo.Manager)
		for _, tx := range mgr.Committed() {
			for _, out := range tx.Outputs {
				balances[out.PublicKey] = mgr.Balance(out.PublicKey)
			}
		}
	})

	keys := make([]string, 0, len(balances))
	for key := range balances {
		if onlyKey == "" || key == onlyKey {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("PublicKey: %s  Balance: %d\n", key, balances[key])
	}

	return nil
}
