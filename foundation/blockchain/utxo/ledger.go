package utxo

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

// Set of errors returned when verifying a transaction.
var (
	ErrDuplicate   = errors.New("transaction already known")
	ErrDoubleSpend = errors.New("output already spent")
	ErrUnbalanced  = errors.New("inputs and outputs do not balance")
)

// outpoint identifies a single output of a transaction.
type outpoint struct {
	tx    string
	index int
}

// ledger indexes transactions and the outputs they spend. A ledger with a
// parent is an overlay: lookups fall through to the parent and writes stay
// in the overlay until they are folded into the parent.
type ledger struct {
	parent *ledger
	order  []string
	txs    map[string]Transaction
	spent  map[outpoint]string
}

func newLedger(parent *ledger) *ledger {
	return &ledger{
		parent: parent,
		txs:    make(map[string]Transaction),
		spent:  make(map[outpoint]string),
	}
}

func (l *ledger) transaction(id string) (Transaction, bool) {
	for cur := l; cur != nil; cur = cur.parent {
		if tx, exists := cur.txs[id]; exists {
			return tx, true
		}
	}
	return Transaction{}, false
}

func (l *ledger) spender(op outpoint) (string, bool) {
	for cur := l; cur != nil; cur = cur.parent {
		if id, exists := cur.spent[op]; exists {
			return id, true
		}
	}
	return "", false
}

func (l *ledger) add(tx Transaction) {
	l.order = append(l.order, tx.ID)
	l.txs[tx.ID] = tx
	for _, in := range tx.Inputs {
		l.spent[outpoint{tx: in.PreviousTransaction, index: in.PreviousTransactionIndex}] = tx.ID
	}
}

// fold moves everything in the overlay into its parent.
func (l *ledger) fold() {
	for _, id := range l.order {
		l.parent.add(l.txs[id])
	}
	l.order = nil
	l.txs = make(map[string]Transaction)
	l.spent = make(map[outpoint]string)
}

// all returns every transaction visible through the ledger, parents first.
func (l *ledger) all() []Transaction {
	var txs []Transaction
	if l.parent != nil {
		txs = l.parent.all()
	}
	for _, id := range l.order {
		txs = append(txs, l.txs[id])
	}
	return txs
}

// verify checks a regular transaction against the ledger. Every input must
// reference an existing, unspent output and be signed by its owner, and the
// outputs must spend exactly what the inputs bring in.
func (l *ledger) verify(tx Transaction) error {
	if err := l.verifyIdentity(tx); err != nil {
		return err
	}

	if len(tx.Inputs) == 0 {
		return errors.New("transaction has no inputs")
	}

	body, err := tx.Signable()
	if err != nil {
		return err
	}

	seen := make(map[outpoint]struct{}, len(tx.Inputs))
	var in uint64
	for i, input := range tx.Inputs {
		op := outpoint{tx: input.PreviousTransaction, index: input.PreviousTransactionIndex}

		if _, exists := seen[op]; exists {
			return fmt.Errorf("input %d: output spent twice in transaction: %w", i, ErrDoubleSpend)
		}
		seen[op] = struct{}{}

		prev, exists := l.transaction(op.tx)
		if !exists {
			return fmt.Errorf("input %d: transaction %.16s not found", i, op.tx)
		}

		if op.index < 0 || op.index >= len(prev.Outputs) {
			return fmt.Errorf("input %d: output index %d out of range", i, op.index)
		}

		if by, spent := l.spender(op); spent {
			return fmt.Errorf("input %d: spent by %.16s: %w", i, by, ErrDoubleSpend)
		}

		output := prev.Outputs[op.index]
		if err := signature.Verify(body, input.Signature, output.PublicKey); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}

		var carry uint64
		if in, carry = bits.Add64(in, output.Amount, 0); carry != 0 {
			return fmt.Errorf("input amount overflow: %w", ErrUnbalanced)
		}
	}

	out, err := sumOutputs(tx.Outputs)
	if err != nil {
		return err
	}

	if in != out {
		return fmt.Errorf("inputs %d, outputs %d: %w", in, out, ErrUnbalanced)
	}

	return nil
}

// verifyCoinbase checks the transaction minting the block reward.
func (l *ledger) verifyCoinbase(tx Transaction, reward uint64) error {
	if err := l.verifyIdentity(tx); err != nil {
		return err
	}

	switch {
	case len(tx.Inputs) != 0:
		return errors.New("coinbase can't have inputs")
	case len(tx.Outputs) != 1:
		return fmt.Errorf("coinbase must have one output, got %d", len(tx.Outputs))
	case tx.Outputs[0].Amount != reward:
		return fmt.Errorf("coinbase pays %d, reward is %d", tx.Outputs[0].Amount, reward)
	}

	return nil
}

func (l *ledger) verifyIdentity(tx Transaction) error {
	id, err := tx.Hash()
	if err != nil {
		return err
	}

	if id != tx.ID {
		return fmt.Errorf("transaction id %.16s doesn't match its content", tx.ID)
	}

	if _, exists := l.transaction(tx.ID); exists {
		return ErrDuplicate
	}

	return nil
}

func sumOutputs(outputs []Output) (uint64, error) {
	var sum, carry uint64
	for _, o := range outputs {
		if sum, carry = bits.Add64(sum, o.Amount, 0); carry != 0 {
			return 0, fmt.Errorf("output amount overflow: %w", ErrUnbalanced)
		}
	}
	return sum, nil
}
