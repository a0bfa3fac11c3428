package account

import (
	"fmt"

	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/mempool"
)

// DefaultMaxSteps is the step budget of a transaction when none is configured.
const DefaultMaxSteps = 10_000

// Commit is the block payload: the transactions of the block and the
// contract set that results from applying them.
type Commit struct {
	Transactions []Transaction `json:"transactions"`
	Contracts    []Contract    `json:"contracts"`
}

// EventHandler defines a function that is called when events
// occur in the processing of transactions.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the manager.
type Config struct {
	MaxSteps  int // Step budget of every transaction.
	EvHandler EventHandler
}

// Manager tracks the committed contracts and the mempool of transactions
// waiting to be mined.
type Manager struct {
	cfg       Config
	contracts contracts
	committed map[string]struct{}
	mempool   *mempool.Mempool[Transaction]
	evHandler EventHandler
}

// Make sure the manager satisfies the transaction manager contract.
var _ manager.Manager[Transaction, Commit] = (*Manager)(nil)

// New constructs a manager with no contracts.
func New(cfg Config) *Manager {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}

	// Build a safe event handler function for use. The config keeps the
	// caller's handler so Clone hands it on unwrapped.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Manager{
		cfg:       cfg,
		contracts: make(contracts),
		committed: make(map[string]struct{}),
		mempool:   mempool.New(func(tx Transaction) string { return tx.ID }),
		evHandler: ev,
	}
}

// AddTransaction validates the transaction and dry runs it on top of the
// committed contracts and the mempool before adding it to the mempool.
func (m *Manager) AddTransaction(tx Transaction) bool {
	if err := m.check(tx); err != nil {
		m.evHandler("account: AddTransaction: tx[%s]: rejected: %s", tx, err)
		return false
	}

	if m.mempool.Contains(tx.ID) {
		return false
	}

	state, _ := m.project()
	if err := state.apply(tx, m.cfg.MaxSteps); err != nil {
		m.evHandler("account: AddTransaction: tx[%s]: rejected: %s", tx, err)
		return false
	}

	return m.mempool.Add(tx)
}

// DataToCommit returns the mempool transactions that still execute and the
// contract set after executing them.
func (m *Manager) DataToCommit() Commit {
	state, txs := m.project()
	return Commit{
		Transactions: txs,
		Contracts:    state.list(),
	}
}

// Pending returns the mempool along with the committed contracts.
func (m *Manager) Pending() Commit {
	return Commit{
		Transactions: m.mempool.Copy(),
		Contracts:    m.contracts.list(),
	}
}

// ApplyCommitted re-executes the transactions of a block and commits the
// result if it matches the declared contract set. Nothing is committed
// unless every transaction succeeds.
func (m *Manager) ApplyCommitted(commit Commit) bool {
	staged := m.contracts.clone()
	ids := make(map[string]struct{}, len(commit.Transactions))

	for _, tx := range commit.Transactions {
		if err := m.check(tx); err != nil {
			m.evHandler("account: ApplyCommitted: tx[%s]: rejected: %s", tx, err)
			return false
		}

		if _, exists := ids[tx.ID]; exists {
			m.evHandler("account: ApplyCommitted: tx[%s]: rejected: duplicate in block", tx)
			return false
		}
		ids[tx.ID] = struct{}{}

		if err := staged.apply(tx, m.cfg.MaxSteps); err != nil {
			m.evHandler("account: ApplyCommitted: tx[%s]: rejected: %s", tx, err)
			return false
		}
	}

	if !staged.equal(commit.Contracts) {
		m.evHandler("account: ApplyCommitted: rejected: declared contracts don't match execution")
		return false
	}

	m.contracts = staged
	for id := range ids {
		m.committed[id] = struct{}{}
	}

	m.reconcile()

	return true
}

// ApplyToCommit offers previously pending transactions back to the mempool.
// Transactions already committed or no longer valid are dropped.
func (m *Manager) ApplyToCommit(commit Commit) bool {
	for _, tx := range commit.Transactions {
		if _, exists := m.committed[tx.ID]; exists {
			continue
		}
		m.AddTransaction(tx)
	}

	return true
}

// Clone returns a manager with the same configuration and no data.
func (m *Manager) Clone() manager.Manager[Transaction, Commit] {
	return New(m.cfg)
}

// TransactionID returns the id of the transaction.
func (m *Manager) TransactionID(tx Transaction) string {
	return tx.ID
}

// TransactionIDs returns the ids of the transactions in the commit.
func (m *Manager) TransactionIDs(commit Commit) []string {
	ids := make([]string, len(commit.Transactions))
	for i, tx := range commit.Transactions {
		ids[i] = tx.ID
	}
	return ids
}

// =============================================================================

// Contract returns the committed contract with the id.
func (m *Manager) Contract(id string) (Contract, bool) {
	c, exists := m.contracts[id]
	return c, exists
}

// Contracts returns the committed contracts ordered by id.
func (m *Manager) Contracts() []Contract {
	return m.contracts.list()
}

// check validates the transaction and makes sure it was never committed.
func (m *Manager) check(tx Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if _, exists := m.committed[tx.ID]; exists {
		return fmt.Errorf("transaction already committed")
	}

	return nil
}

// project applies the mempool on a copy of the committed contracts and
// returns the resulting set with the transactions that executed.
func (m *Manager) project() (contracts, []Transaction) {
	state := m.contracts.clone()
	txs := []Transaction{}

	for _, tx := range m.mempool.Copy() {
		if err := state.apply(tx, m.cfg.MaxSteps); err != nil {
			m.evHandler("account: project: tx[%s]: skipped: %s", tx, err)
			continue
		}
		txs = append(txs, tx)
	}

	return state, txs
}

// reconcile drops transactions from the mempool that were committed or no
// longer execute on top of the committed contracts.
func (m *Manager) reconcile() {
	pending := m.mempool.Copy()
	m.mempool.Truncate()

	state := m.contracts.clone()
	for _, tx := range pending {
		if _, exists := m.committed[tx.ID]; exists {
			continue
		}
		if err := state.apply(tx, m.cfg.MaxSteps); err != nil {
			m.evHandler("account: reconcile: tx[%s]: dropped: %s", tx, err)
			continue
		}
		m.mempool.Add(tx)
	}
}
