package utxo

import (
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of transactions.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the manager.
type Config struct {
	MinerPublicKey string // Beneficiary of the coinbase of mined blocks.
	MiningReward   uint64 // Amount minted by every coinbase.
	EvHandler      EventHandler
}

// Manager tracks the committed transactions of the chain and the mempool of
// transactions waiting to be mined.
type Manager struct {
	cfg       Config
	committed *ledger
	pool      *ledger // Overlay on committed holding the mempool.
	mempool   *mempool.Mempool[Transaction]
	evHandler EventHandler
}

// Make sure the manager satisfies the transaction manager contract.
var _ manager.Manager[Transaction, []Transaction] = (*Manager)(nil)

// New constructs a manager with no committed transactions.
func New(cfg Config) *Manager {
	// Build a safe event handler function for use. The config keeps the
	// caller's handler so Clone hands it on unwrapped.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	committed := newLedger(nil)

	return &Manager{
		cfg:       cfg,
		committed: committed,
		pool:      newLedger(committed),
		mempool:   mempool.New(func(tx Transaction) string { return tx.ID }),
		evHandler: ev,
	}
}

// AddTransaction validates the transaction against the committed history
// and the mempool and adds it to the mempool.
func (m *Manager) AddTransaction(tx Transaction) bool {
	if err := m.pool.verify(tx); err != nil {
		m.evHandler("utxo: AddTransaction: tx[%s]: rejected: %s", tx, err)
		return false
	}

	m.pool.add(tx)
	m.mempool.Add(tx)

	return true
}

// DataToCommit returns a new coinbase paying the miner followed by the
// transactions of the mempool.
func (m *Manager) DataToCommit() []Transaction {
	txs := m.mempool.Copy()

	coinbase, err := NewCoinbase(m.cfg.MinerPublicKey, m.cfg.MiningReward)
	if err != nil {
		m.evHandler("utxo: DataToCommit: coinbase: ERROR: %s", err)
		return txs
	}

	return append([]Transaction{coinbase}, txs...)
}

// Pending returns the transactions in the mempool.
func (m *Manager) Pending() []Transaction {
	return m.mempool.Copy()
}

// ApplyCommitted validates the transactions of a block and commits them.
// The first transaction must be the coinbase. Nothing is committed unless
// every transaction is valid.
func (m *Manager) ApplyCommitted(txs []Transaction) bool {
	if len(txs) == 0 {
		m.evHandler("utxo: ApplyCommitted: rejected: missing coinbase")
		return false
	}

	staged := newLedger(m.committed)

	if err := staged.verifyCoinbase(txs[0], m.cfg.MiningReward); err != nil {
		m.evHandler("utxo: ApplyCommitted: coinbase[%s]: rejected: %s", txs[0], err)
		return false
	}
	staged.add(txs[0])

	for _, tx := range txs[1:] {
		if err := staged.verify(tx); err != nil {
			m.evHandler("utxo: ApplyCommitted: tx[%s]: rejected: %s", tx, err)
			return false
		}
		staged.add(tx)
	}

	staged.fold()
	m.reconcile()

	return true
}

// ApplyToCommit offers previously pending transactions back to the mempool.
// Transactions already committed or no longer valid are dropped.
func (m *Manager) ApplyToCommit(txs []Transaction) bool {
	for _, tx := range txs {
		if tx.IsCoinbase() {
			continue
		}
		if _, exists := m.committed.transaction(tx.ID); exists {
			continue
		}
		m.AddTransaction(tx)
	}

	return true
}

// Clone returns a manager with the same configuration and no data.
func (m *Manager) Clone() manager.Manager[Transaction, []Transaction] {
	return New(m.cfg)
}

// TransactionID returns the id of the transaction.
func (m *Manager) TransactionID(tx Transaction) string {
	return tx.ID
}

// TransactionIDs returns the ids of the transactions.
func (m *Manager) TransactionIDs(txs []Transaction) []string {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	return ids
}

// =============================================================================

// Transaction returns the committed transaction with the id.
func (m *Manager) Transaction(id string) (Transaction, bool) {
	return m.committed.transaction(id)
}

// Committed returns every committed transaction in commit order.
func (m *Manager) Committed() []Transaction {
	txs := m.committed.all()
	if txs == nil {
		return []Transaction{}
	}
	return txs
}

// Balance returns the sum of the committed, unspent outputs owned by the
// public key.
func (m *Manager) Balance(publicKey string) uint64 {
	var total uint64
	for _, u := range m.unspent(m.committed, publicKey) {
		total += u.Amount
	}
	return total
}

// Unspent returns the committed outputs owned by the public key that are
// not spent by the chain or by a transaction in the mempool.
func (m *Manager) Unspent(publicKey string) []Unspent {
	return m.unspent(m.pool, publicKey)
}

func (m *Manager) unspent(view *ledger, publicKey string) []Unspent {
	unspent := []Unspent{}
	for _, tx := range m.committed.all() {
		for i, o := range tx.Outputs {
			if o.PublicKey != publicKey {
				continue
			}
			if _, spent := view.spender(outpoint{tx: tx.ID, index: i}); spent {
				continue
			}
			unspent = append(unspent, Unspent{
				TransactionID: tx.ID,
				Index:         i,
				Amount:        o.Amount,
				PublicKey:     o.PublicKey,
			})
		}
	}
	return unspent
}

// reconcile rebuilds the mempool on top of the committed history, dropping
// transactions that were committed or are now in conflict with it.
func (m *Manager) reconcile() {
	pending := m.mempool.Copy()

	m.pool = newLedger(m.committed)
	m.mempool.Truncate()

	for _, tx := range pending {
		if err := m.pool.verify(tx); err != nil {
			m.evHandler("utxo: reconcile: tx[%s]: dropped: %s", tx, err)
			continue
		}
		m.pool.add(tx)
		m.mempool.Add(tx)
	}
}
