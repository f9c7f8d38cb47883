// Package nameservice reads a folder of private key files and creates a name
// service lookup for the signing accounts the prover can use.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common"
)

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[common.Address]string
	paths    map[string]string
}

// New constructs a name service with accounts from the specified folder. A
// folder that does not exist produces an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[common.Address]string),
		paths:    make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			if fileName == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != signature.KeyExtension {
			return nil
		}

		privateKey, err := signature.Load(fileName)
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(path.Base(fileName), signature.KeyExtension)
		ns.accounts[signature.Address(privateKey)] = name
		ns.paths[name] = fileName

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account.
func (ns *NameService) Lookup(account common.Address) string {
	name, exists := ns.accounts[account]
	if !exists {
		return account.Hex()
	}
	return name
}

// KeyPath returns the file holding the private key for the named account.
func (ns *NameService) KeyPath(name string) (string, error) {
	p, exists := ns.paths[strings.TrimSuffix(name, signature.KeyExtension)]
	if !exists {
		return "", fmt.Errorf("account %q not found", name)
	}
	return p, nil
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[common.Address]string {
	cpy := make(map[common.Address]string, len(ns.accounts))
	for account, name := range ns.accounts {
		cpy[account] = name
	}
	return cpy
}
