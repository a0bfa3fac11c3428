package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tcoin/blockchain/foundation/blockchain/account"
	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/hashcash"
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
	"github.com/tcoin/blockchain/foundation/blockchain/state"
	"github.com/tcoin/blockchain/foundation/blockchain/utxo"
)

// forge solves a block with the content on top of prev. The block passes
// every structural check, only the content can make it invalid.
func forge[T any](t *testing.T, prev database.Block[T], content T) database.Block[T] {
	hashFn, err := database.Hasher(prev.ID, 1, content)
	if err != nil {
		t.Fatalf("Should be able to hash the content: %s", err)
	}

	nonce, err := hashcash.FindNonce(context.Background(), hashFn, 1, hashcash.Unlimited)
	if err != nil {
		t.Fatalf("Should be able to solve the block: %s", err)
	}

	block, err := database.NewBlock(prev.ID, nonce, 1, content)
	if err != nil {
		t.Fatalf("Should be able to construct the block: %s", err)
	}

	return block
}

// snapshot hashes everything a node exposes about its utxo state.
func snapshot(t *testing.T, bc *chain, publicKeys ...string) string {
	balances := make([]uint64, len(publicKeys))
	for i, pk := range publicKeys {
		balances[i] = balance(bc, pk)
	}

	h, err := signature.Hash(struct {
		Blocks   []database.Block[[]utxo.Transaction]
		Pending  []utxo.Transaction
		Balances []uint64
	}{bc.Blocks(), bc.Pending(), balances})
	if err != nil {
		t.Fatalf("Should be able to hash the node state: %s", err)
	}

	return h
}

func coinbase(t *testing.T, publicKey string) utxo.Transaction {
	tx, err := utxo.NewCoinbase(publicKey, 1000)
	if err != nil {
		t.Fatalf("Should be able to construct a coinbase: %s", err)
	}
	return tx
}

// =============================================================================

func TestMergeInvalidContent(t *testing.T) {
	pkA, err := signature.PrivateKeyFromHex(keyA)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	pkB, err := signature.PrivateKeyFromHex(keyB)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	pubA, pubB, pubC := publicKey(t, keyA), publicKey(t, keyB), publicKey(t, keyC)

	t.Log("Given the need to reject chains whose blocks carry invalid content.")
	{
		t.Logf("\tTest 0:\tWhen a block mints more than the reward.")
		{
			b := newChain(t, keyB, nil)
			before := snapshot(t, b, pubA, pubB)

			greedy, err := utxo.NewCoinbase(pubA, 5000)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a coinbase: %s", failed, err)
			}
			candidate := append(b.Blocks(), forge(t, b.Genesis(), []utxo.Transaction{greedy}))

			if _, err := b.MergeBlocks(candidate); !errors.Is(err, state.ErrInvalidChain) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the chain.", success)

			if snapshot(t, b, pubA, pubB) != before {
				t.Fatalf("\t%s\tTest 0:\tShould leave the node exactly as it was.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave the node exactly as it was.", success)
		}

		t.Logf("\tTest 1:\tWhen two blocks spend the same output.")
		{
			a := newChain(t, keyA, nil)
			mine(t, a)

			unspent := utxoManager(a).Unspent(pubA)
			first, err := utxo.Send(pkA, unspent, pubB, 100)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build a transaction: %s", failed, err)
			}
			second, err := utxo.Send(pkA, unspent, pubC, 200)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build a transaction: %s", failed, err)
			}

			blocks := a.Blocks()
			block2 := forge(t, blocks[1], []utxo.Transaction{coinbase(t, pubA), first})
			block3 := forge(t, block2, []utxo.Transaction{coinbase(t, pubA), second})
			candidate := append(blocks, block2, block3)

			// The node has a chain and a pending transaction of its own.
			b := newChain(t, keyB, nil)
			mine(t, b)
			send, err := utxo.Send(pkB, utxoManager(b).Unspent(pubB), pubC, 10)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build a transaction: %s", failed, err)
			}
			if !b.AddTransaction(send) {
				t.Fatalf("\t%s\tTest 1:\tShould accept a valid transaction.", failed)
			}

			before := snapshot(t, b, pubA, pubB, pubC)

			if _, err := b.MergeBlocks(candidate); !errors.Is(err, state.ErrInvalidChain) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the double spend: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the double spend.", success)

			if snapshot(t, b, pubA, pubB, pubC) != before {
				t.Fatalf("\t%s\tTest 1:\tShould leave the node exactly as it was.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould leave the node exactly as it was.", success)

			// Without the conflicting block the chain is fine.
			if merged, err := b.MergeBlocks(append(blocks, block2, forge(t, block2, []utxo.Transaction{coinbase(t, pubA)}))); !merged {
				t.Fatalf("\t%s\tTest 1:\tShould adopt the chain without the double spend: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould adopt the chain without the double spend.", success)
		}

		t.Logf("\tTest 2:\tWhen a block lies about the resulting contracts.")
		{
			mgr := account.New(account.Config{MaxSteps: 1_000})
			bc, err := state.New(state.Config[account.Transaction, account.Commit]{
				Difficulty: 1,
				Manager:    mgr,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to construct the blockchain: %s", failed, err)
			}

			const code = `(define x 1)`
			deploy, err := account.NewDeploy(pkA, 1, code)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to construct a deploy: %s", failed, err)
			}

			lie := account.Commit{
				Transactions: []account.Transaction{deploy},
				Contracts: []account.Contract{{
					ID:      account.ContractID(code),
					Code:    code,
					Storage: map[string]any{"stolen": 1.0},
				}},
			}

			view := func() string {
				var contracts []account.Contract
				bc.Query(func(m manager.Manager[account.Transaction, account.Commit]) {
					contracts = m.(*account.Manager).Contracts()
				})
				h, err := signature.Hash(struct {
					Blocks    []database.Block[account.Commit]
					Pending   account.Commit
					Contracts []account.Contract
				}{bc.Blocks(), bc.Pending(), contracts})
				if err != nil {
					t.Fatalf("\t%s\tTest 2:\tShould be able to hash the node state: %s", failed, err)
				}
				return h
			}
			before := view()

			candidate := append(bc.Blocks(), forge(t, bc.Genesis(), lie))
			if _, err := bc.MergeBlocks(candidate); !errors.Is(err, state.ErrInvalidChain) {
				t.Fatalf("\t%s\tTest 2:\tShould reject the chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the chain.", success)

			if view() != before {
				t.Fatalf("\t%s\tTest 2:\tShould leave the node exactly as it was.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould leave the node exactly as it was.", success)
		}
	}
}
