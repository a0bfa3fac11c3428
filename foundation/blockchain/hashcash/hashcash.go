// Package hashcash implements the proof of work rules for the blockchain.
// A hash solves the puzzle when it starts with a difficulty number of 0's.
package hashcash

import (
	"context"
	"math"
	"time"
)

// Unlimited represents a hash rate with no throttling applied.
var Unlimited = math.Inf(1)

// checkpoint is the number of attempts between yield points. At each
// checkpoint the search checks for cancellation and applies rate limiting.
const checkpoint = 1_000

// HashFunc produces the hex encoded hash of a candidate for the given nonce.
type HashFunc func(nonce uint64) string

// =============================================================================

// LeadingZeros counts the number of leading '0' hex characters in the hash.
func LeadingZeros(hash string) int {
	for i := 0; i < len(hash); i++ {
		if hash[i] != '0' {
			return i
		}
	}
	return len(hash)
}

// Verify checks the hash to make sure it complies with the POW rules. We
// need to match a difficulty number of 0's.
func Verify(hash string, difficulty uint32) bool {
	return uint64(LeadingZeros(hash)) >= uint64(difficulty)
}

// FindNonce performs the work of finding a nonce that produces a hash
// solving the puzzle at the specified difficulty. A finite hashRate (hashes
// per second) slows the search down so mining doesn't starve the rest of the
// node. The search can be cancelled through the context and is checked at
// every checkpoint.
func FindNonce(ctx context.Context, hashFn HashFunc, difficulty uint32, hashRate float64) (uint64, error) {
	throttle := !math.IsInf(hashRate, 1) && hashRate > 0

	// Time budget for one batch of attempts at the target rate.
	var batch time.Duration
	if throttle {
		batch = time.Duration(float64(checkpoint) / hashRate * float64(time.Second))
	}

	start := time.Now()
	attempts := 0
	for nonce := uint64(0); ; nonce++ {
		if Verify(hashFn(nonce), difficulty) {
			return nonce, nil
		}

		if attempts++; attempts < checkpoint {
			continue
		}
		attempts = 0

		// Did we get cancelled trying to solve the problem.
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if !throttle {
			continue
		}

		// Sleep off whatever is left of the batch budget.
		if wait := batch - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return 0, ctx.Err()
			case <-timer.C:
			}
		}
		start = time.Now()
	}
}
