// Package manager defines the behavior every transaction strategy must
// implement. The consensus engine only works with this contract and knows
// nothing about the shape of a transaction or of the data committed in a
// block.
package manager

// Manager interface represents the behavior required to be implemented by any
// package providing a transaction strategy. TX is the transaction a client
// submits and D is the data committed as the content of a block.
type Manager[TX any, D any] interface {

	// AddTransaction validates the transaction against the committed state
	// and the transactions already accepted. Valid transactions are added to
	// the mempool. Duplicates are rejected without error.
	AddTransaction(tx TX) bool

	// DataToCommit produces the content for the next block to be mined.
	DataToCommit() D

	// Pending returns the mempool in the same shape used by block content.
	Pending() D

	// ApplyCommitted authoritatively applies the content of a block. The
	// content is fully validated again and nothing is applied on failure.
	ApplyCommitted(data D) bool

	// ApplyToCommit re-admits previously pending data into the mempool after
	// a manager swap, skipping anything already committed.
	ApplyToCommit(data D) bool

	// Clone returns a new instance of the same strategy with empty state.
	Clone() Manager[TX, D]

	// TransactionID returns the unique id of a transaction.
	TransactionID(tx TX) string

	// TransactionIDs returns the ids of the transactions inside the data.
	TransactionIDs(data D) []string
}
