// Package nameservice reads a folder of key files and creates a name
// service lookup for the public keys they hold.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
)

// KeyExtension is the extension of key files.
const KeyExtension = ".ecdsa"

// NameService maintains a map of public keys for name lookup.
type NameService struct {
	keys map[string]string
}

// New constructs a name service with the keys found under the root folder.
// The name of a key is its file name without the extension.
func New(root string) (*NameService, error) {
	ns := NameService{
		keys: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != KeyExtension {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		publicKey := signature.PublicKeyHex(privateKey.PublicKey)
		ns.keys[publicKey] = strings.TrimSuffix(path.Base(fileName), KeyExtension)

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified public key. Unknown keys are
// returned as is.
func (ns *NameService) Lookup(publicKey string) string {
	name, exists := ns.keys[publicKey]
	if !exists {
		return publicKey
	}
	return name
}

// PublicKey returns the public key registered under the name.
func (ns *NameService) PublicKey(name string) (string, bool) {
	for publicKey, n := range ns.keys {
		if n == name {
			return publicKey, true
		}
	}
	return "", false
}

// Copy returns a copy of the map of public keys and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.keys))
	for publicKey, name := range ns.keys {
		cpy[publicKey] = name
	}
	return cpy
}
