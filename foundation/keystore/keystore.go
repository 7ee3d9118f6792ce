// Package keystore reads a folder of ECDSA private key files and provides
// signing keys by account address. The file name (minus the .ecdsa
// extension) is used as the display name for the account.
package keystore

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Extension is the file extension for private key files.
const Extension = ".ecdsa"

type entry struct {
	name string
	key  *ecdsa.PrivateKey
}

// KeyStore maintains a map of accounts to their private keys.
type KeyStore struct {
	accounts map[common.Address]entry
}

// New constructs a key store with the keys found under the root folder. An
// empty root or a folder that does not exist produces an empty store.
func New(root string) (*KeyStore, error) {
	ks := KeyStore{
		accounts: make(map[common.Address]entry),
	}

	if root == "" {
		return &ks, nil
	}

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return &ks, nil
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != Extension {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("loading key %s: %w", fileName, err)
		}

		address := crypto.PubkeyToAddress(privateKey.PublicKey)
		ks.accounts[address] = entry{
			name: strings.TrimSuffix(path.Base(fileName), Extension),
			key:  privateKey,
		}

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ks, nil
}

// Key returns the private key for the specified account.
func (ks *KeyStore) Key(address common.Address) (*ecdsa.PrivateKey, bool) {
	e, exists := ks.accounts[address]
	if !exists {
		return nil, false
	}
	return e.key, true
}

// Lookup returns the name for the specified account.
func (ks *KeyStore) Lookup(address common.Address) string {
	e, exists := ks.accounts[address]
	if !exists {
		return address.Hex()
	}
	return e.name
}

// Copy returns a copy of the map of names and accounts.
func (ks *KeyStore) Copy() map[common.Address]string {
	cpy := make(map[common.Address]string, len(ks.accounts))
	for address, e := range ks.accounts {
		cpy[address] = e.name
	}
	return cpy
}

// Len returns the number of keys loaded.
func (ks *KeyStore) Len() int {
	return len(ks.accounts)
}
