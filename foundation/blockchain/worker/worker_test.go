package worker_test

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/node"
	"github.com/tcoin/blockchain/foundation/blockchain/protocol"
	"github.com/tcoin/blockchain/foundation/blockchain/state"
	"github.com/tcoin/blockchain/foundation/blockchain/utxo"
	"github.com/tcoin/blockchain/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type (
	tx      = utxo.Transaction
	content = []utxo.Transaction
)

// isolated is a client for a node without peers.
type isolated[TX any, D any] struct{}

func (isolated[TX, D]) SendMessage(ctx context.Context, peer string, msg protocol.Message[TX, D]) (*protocol.Message[TX, D], error) {
	return nil, nil
}

func (isolated[TX, D]) Broadcast(ctx context.Context, peers []string, msg protocol.Message[TX, D]) {}

// unhashable is a strategy whose block content never serializes, so every
// search fails before any work is done.
type unhashable struct{}

func (unhashable) AddTransaction(tx string) bool             { return false }
func (unhashable) DataToCommit() float64                     { return math.Inf(1) }
func (unhashable) Pending() float64                          { return 0 }
func (unhashable) ApplyCommitted(data float64) bool          { return false }
func (unhashable) ApplyToCommit(data float64) bool           { return true }
func (u unhashable) Clone() manager.Manager[string, float64] { return u }
func (unhashable) TransactionID(tx string) string            { return tx }
func (unhashable) TransactionIDs(data float64) []string      { return nil }

func TestMining(t *testing.T) {
	t.Log("Given the need to mine blocks in the background.")
	{
		t.Logf("\tTest 0:\tWhen mining is started.")
		{
			ev := func(v string, args ...any) { t.Logf("\t\t"+v, args...) }

			bc, err := state.New(state.Config[tx, content]{
				Difficulty: 1,
				Manager:    utxo.New(utxo.Config{MinerPublicKey: "miner", MiningReward: 1000}),
				EvHandler:  ev,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the blockchain: %s", failed, err)
			}

			srv, err := node.New(node.Config[tx, content]{
				Host:            "a:9080",
				ProtocolVersion: 1,
				Blockchain:      bc,
				Client:          isolated[tx, content]{},
				EvHandler:       ev,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the node: %s", failed, err)
			}

			worker.Run(srv, ev)
			srv.StartMining()

			deadline := time.Now().Add(10 * time.Second)
			for len(bc.Blocks()) < 3 && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}

			if got := len(bc.Blocks()); got < 3 {
				t.Fatalf("\t%s\tTest 0:\tShould keep mining blocks: got %d blocks", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould keep mining blocks.", success)

			srv.StopMining()
			srv.Shutdown()

			height := len(bc.Blocks())
			time.Sleep(50 * time.Millisecond)

			if got := len(bc.Blocks()); got != height {
				t.Fatalf("\t%s\tTest 0:\tShould stop mining after shutdown: got %d, exp %d", failed, got, height)
			}
			t.Logf("\t%s\tTest 0:\tShould stop mining after shutdown.", success)
		}
	}
}

func TestMiningFailure(t *testing.T) {
	t.Log("Given the need to survive a search that can't start.")
	{
		t.Logf("\tTest 0:\tWhen every search fails.")
		{
			var searches atomic.Int32
			ev := func(v string, args ...any) {
				if strings.HasPrefix(v, "state: MineBlock") {
					searches.Add(1)
				}
			}

			bc, err := state.New(state.Config[string, float64]{
				Difficulty: 1,
				Manager:    unhashable{},
				EvHandler:  ev,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the blockchain: %s", failed, err)
			}

			srv, err := node.New(node.Config[string, float64]{
				Host:            "a:9080",
				ProtocolVersion: 1,
				Blockchain:      bc,
				Client:          isolated[string, float64]{},
				EvHandler:       ev,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the node: %s", failed, err)
			}

			worker.Run(srv, ev)
			srv.StartMining()

			// The pause doubles from 100ms: searches at 0, 100ms and 300ms.
			time.Sleep(400 * time.Millisecond)

			got := searches.Load()
			if got < 1 || got > 6 {
				t.Fatalf("\t%s\tTest 0:\tShould pause between failed searches: got %d searches", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould pause between failed searches.", success)

			done := make(chan struct{})
			go func() {
				srv.StopMining()
				srv.Shutdown()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatalf("\t%s\tTest 0:\tShould shut down while paused.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould shut down while paused.", success)

			if len(bc.Blocks()) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould not extend the chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not extend the chain.", success)
		}
	}
}
