package worker

import (
	"context"
	"errors"
	"time"
)

// Pause between searches that fail for a reason other than a cancel. The
// pause doubles with every failure in a row up to the maximum.
const (
	minRetryDelay = 100 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

// miningOperations runs one search for every start signal.
func (w *Worker[TX, D]) miningOperations() {
	w.evHandler("worker: mining: G started")
	defer w.evHandler("worker: mining: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.mine()
			}
		case <-w.shut:
			w.evHandler("worker: mining: shut signal")
			return
		}
	}
}

// mine searches for a block on top of the current head and proposes it.
// Blocks are mined even with an empty mempool since the coinbase pays the
// reward. The next search is armed while the node is still mining.
func (w *Worker[TX, D]) mine() {
	if !w.srv.IsMining() {
		w.evHandler("worker: mine: mining is off")
		return
	}

	// A cancel sent before this search started is stale.
	select {
	case <-w.cancelMining:
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The watcher ends the search on a cancel or a shutdown.
	done := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		defer cancel()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: mine: cancel requested")
		case <-w.shut:
			w.evHandler("worker: mine: shutdown requested")
		case <-done:
		}
	}()

	start := time.Now()
	block, err := w.srv.MineBlock(ctx)
	cancelled := ctx.Err() != nil || errors.Is(err, context.Canceled)
	close(done)
	<-watched

	switch {
	case err == nil:
		w.failures = 0
		w.evHandler("worker: mine: blk[%.16s]: solved in %v", block.ID, time.Since(start))

		// Losing the race to a peer chain is not a failure.
		if _, err := w.srv.ProposeBlock(block); err != nil {
			w.evHandler("worker: mine: blk[%.16s]: not adopted: %s", block.ID, err)
		}

	case cancelled:
		w.evHandler("worker: mine: search cancelled after %v", time.Since(start))

	default:
		w.failures++
		w.evHandler("worker: mine: ERROR: failures[%d]: %s", w.failures, err)
		w.pause()
	}

	if w.srv.IsMining() && !w.isShutdown() {
		w.SignalStartMining()
	}
}

// pause waits out the retry delay for the current run of failures. A cancel
// or a shutdown cuts it short.
func (w *Worker[TX, D]) pause() {
	delay := minRetryDelay
	for i := 1; i < w.failures && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	w.evHandler("worker: pause: retry in %v", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-w.cancelMining:
	case <-w.shut:
	}
}
