// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"
)

// KeyFunc returns the unique key for a transaction.
type KeyFunc[T any] func(tx T) string

// Mempool represents a cache of pending transactions kept in the order they
// were accepted and deduplicated by their unique key.
type Mempool[T any] struct {
	mu    sync.RWMutex
	keyFn KeyFunc[T]
	order []string
	pool  map[string]T
}

// New constructs a new mempool that identifies transactions with keyFn.
func New[T any](keyFn KeyFunc[T]) *Mempool[T] {
	return &Mempool[T]{
		keyFn: keyFn,
		pool:  make(map[string]T),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool[T]) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.order)
}

// Contains reports if a transaction with the key is in the pool.
func (mp *Mempool[T]) Contains(key string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[key]
	return exists
}

// Add appends a transaction to the end of the pool. It returns false if a
// transaction with the same key already exists.
func (mp *Mempool[T]) Add(tx T) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := mp.keyFn(tx)
	if _, exists := mp.pool[key]; exists {
		return false
	}

	mp.pool[key] = tx
	mp.order = append(mp.order, key)

	return true
}

// Delete removes the transaction with the key from the pool.
func (mp *Mempool[T]) Delete(key string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[key]; !exists {
		return
	}

	delete(mp.pool, key)
	for i, k := range mp.order {
		if k == key {
			mp.order = append(mp.order[:i:i], mp.order[i+1:]...)
			break
		}
	}
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool[T]) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.order = nil
	mp.pool = make(map[string]T)
}

// Copy returns the transactions in the order they were accepted. The slice
// is never nil so it serializes the same way when empty.
func (mp *Mempool[T]) Copy() []T {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]T, 0, len(mp.order))
	for _, key := range mp.order {
		txs = append(txs, mp.pool[key])
	}

	return txs
}
