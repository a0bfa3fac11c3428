// Package worker implements mining and peer updates for the node.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/tcoin/blockchain/foundation/blockchain/node"
)

// peerUpdateInterval represents the interval of finding new peer nodes
// and catching up with their chains.
const peerUpdateInterval = time.Minute

// =============================================================================

// Worker manages the POW workflows for a node.
type Worker[TX any, D any] struct {
	srv          *node.Server[TX, D]
	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan bool
	failures     int // Failed searches in a row, owned by the mining G.
	evHandler    node.EventHandler
}

// Run creates a worker, registers the worker with the node, and starts up
// all the background processes.
func Run[TX any, D any](srv *node.Server[TX, D], evHandler node.EventHandler) *Worker[TX, D] {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker[TX, D]{
		srv:          srv,
		ticker:       time.NewTicker(peerUpdateInterval),
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan bool, 1),
		evHandler:    ev,
	}

	// Register this worker with the node.
	srv.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.miningOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// A node that was mining before the worker existed must start now.
	if srv.IsMining() {
		w.SignalStartMining()
	}

	return &w
}

// =============================================================================
// These methods implement the node.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker[TX, D]) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker[TX, D]) SignalStartMining() {
	if !w.srv.IsMining() {
		w.evHandler("worker: SignalStartMining: mining turned off")
		return
	}

	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G running a search to stop immediately.
func (w *Worker[TX, D]) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// peerOperations refreshes the peers and their chains on every tick.
func (w *Worker[TX, D]) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.srv.Sync(context.Background())
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker[TX, D]) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
