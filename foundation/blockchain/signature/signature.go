// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// tcoinStamp is embedded into every hash that gets signed. This will make
// it clear that the signature comes from the TCoin blockchain.
const tcoinStamp = "\x19TCoin Signed Message:\n32"

// =============================================================================

// HashString returns the hex encoded SHA-256 digest of the string.
func HashString(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Hash returns the hex encoded SHA-256 digest of the canonical JSON encoding
// of the value.
func Hash(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// =============================================================================

// GenerateKey produces a new private key for a wallet.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// PrivateKeyFromHex converts a hex encoded private key into a key value.
func PrivateKeyFromHex(privateKey string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(privateKey)
}

// PrivateKeyHex returns the hex encoding of the private key.
func PrivateKeyHex(privateKey *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSA(privateKey))
}

// PublicKeyHex returns the hex encoding of the uncompressed public key. This
// string is used as the address of a wallet.
func PublicKeyHex(publicKey ecdsa.PublicKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&publicKey))
}

// =============================================================================

// Sign uses the specified private key to sign the data. The signature is
// returned hex encoded in the [R|S|V] format.
func Sign(data string, privateKey *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(stamp(data), privateKey)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced for the data by the owner of the
// specified hex encoded public key.
func Verify(data string, sig string, publicKey string) error {
	pub, err := hex.DecodeString(publicKey)
	if err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}

	if _, err := crypto.UnmarshalPubkey(pub); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}

	rsv, err := hexutil.Decode(sig)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	if len(rsv) != crypto.SignatureLength {
		return errors.New("invalid signature length")
	}

	// The recovery id is not used for verification.
	if !crypto.VerifySignature(pub, stamp(data), rsv[:crypto.RecoveryIDOffset]) {
		return errors.New("invalid signature")
	}

	return nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the TCoin stamp embedded into the final hash.
func stamp(data string) []byte {

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	dataHash := crypto.Keccak256([]byte(data))

	// Hash the stamp and dataHash together in a final 32 byte array
	// that represents the data.
	return crypto.Keccak256([]byte(tcoinStamp), dataHash)
}
