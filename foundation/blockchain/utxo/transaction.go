// Package utxo implements a Bitcoin like transaction strategy. Coins live in
// transaction outputs and are moved by transactions whose inputs consume
// previous outputs that have not been spent yet.
package utxo

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

// Input references an output of a previous transaction being spent.
type Input struct {
	PreviousTransaction      string `json:"previousTransaction"`      // Transaction this one is based off.
	PreviousTransactionIndex int    `json:"previousTransactionIndex"` // Index of the output in the previous transaction.
	Signature                string `json:"signature"`                // Signature over the signable transaction by the output owner.
}

// Output assigns an amount of coins to a public key.
type Output struct {
	Amount    uint64 `json:"amount"`
	PublicKey string `json:"publicKey" validate:"required"`
}

// Transaction moves coins from the referenced outputs to new outputs.
type Transaction struct {
	ID       string   `json:"id" validate:"required"`
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs" validate:"required,min=1,dive"`
	Coinbase string   `json:"coinbase,omitempty"` // Extra data making every coinbase unique.
}

// Unspent describes an output that can be used as an input.
type Unspent struct {
	TransactionID string `json:"transactionId"`
	Index         int    `json:"index"`
	Amount        uint64 `json:"amount"`
	PublicKey     string `json:"publicKey"`
}

// =============================================================================

// hashable is the part of the transaction covered by the id.
type hashable struct {
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs"`
	Coinbase string   `json:"coinbase,omitempty"`
}

// signableInput is the part of an input covered by the signature.
type signableInput struct {
	PreviousTransaction      string `json:"previousTransaction"`
	PreviousTransactionIndex int    `json:"previousTransactionIndex"`
}

// signable is the whole transaction except the signatures, since it's
// impossible to sign your own signature.
type signable struct {
	Inputs   []signableInput `json:"inputs"`
	Outputs  []Output        `json:"outputs"`
	Coinbase string          `json:"coinbase,omitempty"`
}

// Hash computes the id of the transaction from its inputs and outputs.
func (tx Transaction) Hash() (string, error) {
	return signature.Hash(hashable{
		Inputs:   nonNilInputs(tx.Inputs),
		Outputs:  nonNilOutputs(tx.Outputs),
		Coinbase: tx.Coinbase,
	})
}

// Signable returns the data that every input owner must sign.
func (tx Transaction) Signable() (string, error) {
	s := signable{
		Inputs:   make([]signableInput, len(tx.Inputs)),
		Outputs:  nonNilOutputs(tx.Outputs),
		Coinbase: tx.Coinbase,
	}
	for i, in := range tx.Inputs {
		s.Inputs[i] = signableInput{
			PreviousTransaction:      in.PreviousTransaction,
			PreviousTransactionIndex: in.PreviousTransactionIndex,
		}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// IsCoinbase reports if the transaction mints coins.
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	if len(tx.ID) > 16 {
		return tx.ID[:16]
	}
	return tx.ID
}

// =============================================================================

// NewCoinbase constructs the transaction that pays the block reward.
func NewCoinbase(publicKey string, amount uint64) (Transaction, error) {
	tx := Transaction{
		Inputs:   []Input{},
		Outputs:  []Output{{Amount: amount, PublicKey: publicKey}},
		Coinbase: uuid.NewString(),
	}

	id, err := tx.Hash()
	if err != nil {
		return Transaction{}, err
	}
	tx.ID = id

	return tx, nil
}

// NewTransaction constructs a transaction spending the specified outputs,
// all owned by the private key, and signs every input.
func NewTransaction(privateKey *ecdsa.PrivateKey, spend []Unspent, outputs []Output) (Transaction, error) {
	if len(spend) == 0 {
		return Transaction{}, errors.New("no outputs to spend")
	}

	tx := Transaction{
		Inputs:  make([]Input, len(spend)),
		Outputs: nonNilOutputs(outputs),
	}
	for i, u := range spend {
		tx.Inputs[i] = Input{
			PreviousTransaction:      u.TransactionID,
			PreviousTransactionIndex: u.Index,
		}
	}

	body, err := tx.Signable()
	if err != nil {
		return Transaction{}, err
	}

	sig, err := signature.Sign(body, privateKey)
	if err != nil {
		return Transaction{}, fmt.Errorf("sign: %w", err)
	}
	for i := range tx.Inputs {
		tx.Inputs[i].Signature = sig
	}

	id, err := tx.Hash()
	if err != nil {
		return Transaction{}, err
	}
	tx.ID = id

	return tx, nil
}

// Send constructs a transaction paying amount to the public key from the
// unspent outputs of the private key. Anything left over is paid back to
// the sender as change.
func Send(privateKey *ecdsa.PrivateKey, unspent []Unspent, to string, amount uint64) (Transaction, error) {
	from := signature.PublicKeyHex(privateKey.PublicKey)

	var spend []Unspent
	var total uint64
	for _, u := range unspent {
		if u.PublicKey != from {
			continue
		}
		spend = append(spend, u)
		total += u.Amount
		if total >= amount {
			break
		}
	}

	if total < amount {
		return Transaction{}, fmt.Errorf("insufficient funds, bal %d, needed %d", total, amount)
	}

	outputs := []Output{{Amount: amount, PublicKey: to}}
	if change := total - amount; change > 0 {
		outputs = append(outputs, Output{Amount: change, PublicKey: from})
	}

	return NewTransaction(privateKey, spend, outputs)
}

// =============================================================================

func nonNilInputs(in []Input) []Input {
	if in == nil {
		return []Input{}
	}
	return in
}

func nonNilOutputs(out []Output) []Output {
	if out == nil {
		return []Output{}
	}
	return out
}
