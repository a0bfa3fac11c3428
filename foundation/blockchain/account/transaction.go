// Package account implements an Ethereum like transaction strategy. There
// are no coins: transactions deploy contracts written in lisp and call the
// procedures they define, which read and write the contract storage.
package account

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

// Set of transaction types.
const (
	TypeDeploy = "deploy"
	TypeCall   = "call"
)

// Transaction is a signed request to deploy or call a contract.
type Transaction struct {
	ID           string `json:"id" validate:"required"`               // Hash of the sender and nonce.
	Type         string `json:"type" validate:"oneof=deploy call"`    // deploy or call.
	Sender       string `json:"sender" validate:"required"`           // Public key of the sender.
	Nonce        uint64 `json:"nonce"`                                // Makes the transaction unique for the sender.
	Code         string `json:"code,omitempty"`                       // Source of the contract being deployed.
	Contract     string `json:"contract,omitempty"`                   // Contract being called.
	FunctionName string `json:"functionName,omitempty"`               // Procedure being called.
	Args         []any  `json:"args,omitempty"`                       // Data arguments of the call.
	Signature    string `json:"signature" validate:"required"`
}

// Hash computes the id of the transaction from the sender and nonce.
func (tx Transaction) Hash() string {
	return signature.HashString(tx.Sender + strconv.FormatUint(tx.Nonce, 10))
}

// Signable returns the data signed by the sender, which is the transaction
// with an empty signature.
func (tx Transaction) Signable() (string, error) {
	tx.Signature = ""

	data, err := json.Marshal(tx)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Validate checks the transaction is well formed and signed by its sender.
func (tx Transaction) Validate() error {
	switch tx.Type {
	case TypeDeploy:
		if tx.Code == "" {
			return errors.New("deploy without code")
		}
	case TypeCall:
		if tx.Contract == "" || tx.FunctionName == "" {
			return errors.New("call without contract or function")
		}
	default:
		return fmt.Errorf("unknown transaction type %q", tx.Type)
	}

	if tx.ID != tx.Hash() {
		return fmt.Errorf("transaction id %.16s doesn't match sender and nonce", tx.ID)
	}

	body, err := tx.Signable()
	if err != nil {
		return err
	}

	return signature.Verify(body, tx.Signature, tx.Sender)
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	if len(tx.ID) > 16 {
		return tx.ID[:16]
	}
	return tx.ID
}

// =============================================================================

// NewDeploy constructs a signed transaction deploying the code.
func NewDeploy(privateKey *ecdsa.PrivateKey, nonce uint64, code string) (Transaction, error) {
	return sign(privateKey, Transaction{
		Type:  TypeDeploy,
		Nonce: nonce,
		Code:  code,
	})
}

// NewCall constructs a signed transaction calling a procedure of a contract.
func NewCall(privateKey *ecdsa.PrivateKey, nonce uint64, contract string, functionName string, args ...any) (Transaction, error) {
	return sign(privateKey, Transaction{
		Type:         TypeCall,
		Nonce:        nonce,
		Contract:     contract,
		FunctionName: functionName,
		Args:         args,
	})
}

func sign(privateKey *ecdsa.PrivateKey, tx Transaction) (Transaction, error) {
	tx.Sender = signature.PublicKeyHex(privateKey.PublicKey)
	tx.ID = tx.Hash()

	body, err := tx.Signable()
	if err != nil {
		return Transaction{}, err
	}

	sig, err := signature.Sign(body, privateKey)
	if err != nil {
		return Transaction{}, fmt.Errorf("sign: %w", err)
	}
	tx.Signature = sig

	return tx, nil
}
