package account_test

import (
	"strings"
	"testing"

	"github.com/tcoin/blockchain/foundation/blockchain/account"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

const registry = `
(define register-value!
	(lambda (key value)
		(if (has-storage key)
			0
			(set-storage! key value))))

(define spin
	(lambda (n) (spin n)))`

func TestContracts(t *testing.T) {
	pk, err := signature.PrivateKeyFromHex(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	mgr := account.New(account.Config{MaxSteps: 1_000})
	id := account.ContractID(registry)

	t.Log("Given the need to deploy and call contracts.")
	{
		t.Logf("\tTest 0:\tWhen deploying a contract.")
		{
			deploy, err := account.NewDeploy(pk, 1, registry)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a deploy: %s", failed, err)
			}

			if !mgr.AddTransaction(deploy) {
				t.Fatalf("\t%s\tTest 0:\tShould accept the deploy.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the deploy.", success)

			again, _ := account.NewDeploy(pk, 2, registry)
			if mgr.AddTransaction(again) {
				t.Fatalf("\t%s\tTest 0:\tShould reject deploying the same code twice.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject deploying the same code twice.", success)

			call, err := account.NewCall(pk, 3, id, "register-value!", "foo", 5)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a call: %s", failed, err)
			}
			if !mgr.AddTransaction(call) {
				t.Fatalf("\t%s\tTest 0:\tShould accept a call to a pending contract.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould accept a call to a pending contract.", success)

			commit := mgr.DataToCommit()
			if len(commit.Transactions) != 2 || len(commit.Contracts) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould commit both transactions and one contract.", failed)
			}

			replay := mgr.Clone()
			if !replay.ApplyCommitted(commit) {
				t.Fatalf("\t%s\tTest 0:\tShould replay the commit on a clone.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould replay the commit on a clone.", success)

			if !mgr.ApplyCommitted(commit) {
				t.Fatalf("\t%s\tTest 0:\tShould apply the commit.", failed)
			}
			if len(mgr.Pending().Transactions) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould empty the mempool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould apply the commit and empty the mempool.", success)

			contract, exists := mgr.Contract(id)
			if !exists || contract.Storage["foo"] != 5.0 {
				t.Fatalf("\t%s\tTest 0:\tShould find the registered value, got %v.", failed, contract.Storage)
			}
			t.Logf("\t%s\tTest 0:\tShould find the registered value.", success)

			if mgr.AddTransaction(call) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a committed transaction.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a committed transaction.", success)
		}

		t.Logf("\tTest 1:\tWhen a call fails.")
		{
			spin, _ := account.NewCall(pk, 10, id, "spin", 1)
			if mgr.AddTransaction(spin) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a call that runs out of steps.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a call that runs out of steps.", success)

			missing, _ := account.NewCall(pk, 11, id, "missing")
			if mgr.AddTransaction(missing) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a call to an unknown procedure.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a call to an unknown procedure.", success)

			contract, _ := mgr.Contract(id)
			if len(contract.Storage) != 1 || contract.Storage["foo"] != 5.0 {
				t.Fatalf("\t%s\tTest 1:\tShould leave the storage untouched, got %v.", failed, contract.Storage)
			}
			t.Logf("\t%s\tTest 1:\tShould leave the storage untouched.", success)

			block := account.Commit{
				Transactions: []account.Transaction{spin},
				Contracts:    mgr.Contracts(),
			}
			if mgr.ApplyCommitted(block) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a block with a failing call.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a block with a failing call.", success)
		}

		t.Logf("\tTest 2:\tWhen a block lies about the resulting contracts.")
		{
			call, _ := account.NewCall(pk, 20, id, "register-value!", "bar", "baz")

			forged := mgr.Contracts()
			forged[0].Storage = map[string]any{"foo": 5.0, "bar": "stolen"}

			block := account.Commit{
				Transactions: []account.Transaction{call},
				Contracts:    forged,
			}
			if mgr.ApplyCommitted(block) {
				t.Fatalf("\t%s\tTest 2:\tShould reject the block.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the block.", success)

			contract, _ := mgr.Contract(id)
			if _, exists := contract.Storage["bar"]; exists {
				t.Fatalf("\t%s\tTest 2:\tShould not partially apply the block.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould not partially apply the block.", success)
		}
	}
}

func TestTransaction(t *testing.T) {
	pk, err := signature.PrivateKeyFromHex(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	t.Log("Given the need to sign account transactions.")
	{
		t.Logf("\tTest 0:\tWhen handling a call transaction.")
		{
			tx, err := account.NewCall(pk, 1, "contract", "fn", "a", 1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a call: %s", failed, err)
			}

			if err := tx.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate.", success)

			if tx.ID != signature.HashString(tx.Sender+"1") {
				t.Fatalf("\t%s\tTest 0:\tShould derive the id from the sender and nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould derive the id from the sender and nonce.", success)

			tampered := tx
			tampered.FunctionName = "other"
			if err := tampered.Validate(); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not validate a tampered transaction.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not validate a tampered transaction.", success)

			renonced := tx
			renonced.Nonce = 2
			if err := renonced.Validate(); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not validate a transaction with a changed nonce.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not validate a transaction with a changed nonce.", success)
		}
	}
}

func TestEvents(t *testing.T) {
	pk, err := signature.PrivateKeyFromHex(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	type table struct {
		name    string
		handler func(v string, args ...any)
		events  *int
	}

	var count int
	tt := []table{
		{name: "nil", handler: nil},
		{name: "counting", handler: func(v string, args ...any) { count++ }, events: &count},
	}

	t.Log("Given the need to report rejected transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				mgr := account.New(account.Config{MaxSteps: 1_000, EvHandler: tst.handler})

				broken, err := account.NewDeploy(pk, 1, "(define")
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to construct a deploy: %s", failed, testID, err)
				}

				if mgr.AddTransaction(broken) {
					t.Fatalf("\t%s\tTest %d:\tShould reject code that doesn't parse.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould reject code that doesn't parse.", success, testID)

				block := account.Commit{Transactions: []account.Transaction{broken}}
				if mgr.Clone().ApplyCommitted(block) {
					t.Fatalf("\t%s\tTest %d:\tShould reject the block on a clone.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould reject the block on a clone.", success, testID)

				if tst.events != nil && *tst.events < 2 {
					t.Fatalf("\t%s\tTest %d:\tShould report both rejections, got %d events.", failed, testID, *tst.events)
				}
				t.Logf("\t%s\tTest %d:\tShould report the rejections.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestNonFiniteStorage(t *testing.T) {
	pk, err := signature.PrivateKeyFromHex(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	code := `(define boom (lambda () (set-storage! "x" (* ` + strings.Repeat("999999999 ", 40) + `))))`

	t.Log("Given the need to keep block content serializable.")
	{
		t.Logf("\tTest 0:\tWhen a call computes a number out of range.")
		{
			mgr := account.New(account.Config{MaxSteps: 1_000})

			deploy, _ := account.NewDeploy(pk, 1, code)
			if !mgr.AddTransaction(deploy) {
				t.Fatalf("\t%s\tTest 0:\tShould accept the deploy.", failed)
			}

			boom, _ := account.NewCall(pk, 2, account.ContractID(code), "boom")
			if mgr.AddTransaction(boom) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the call.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the call.", success)

			commit := mgr.DataToCommit()
			if len(commit.Transactions) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould only commit the deploy, got %d transactions.", failed, len(commit.Transactions))
			}
			if _, err := signature.Hash(commit); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould produce content that hashes: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould produce content that hashes.", success)
		}
	}
}
