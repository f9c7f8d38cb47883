// Package signature provides helper functions for handling the private keys
// and transaction signatures the prover needs.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyExtension is the file extension used for stored private keys.
const KeyExtension = ".ecdsa"

// ErrNoKey is returned when a key was asked for but none was configured.
var ErrNoKey = errors.New("no private key provided")

// =============================================================================

// ParseHex converts a hex encoded private key, with or without the 0x
// prefix, into a private key.
func ParseHex(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, ErrNoKey
	}

	pk, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return pk, nil
}

// Load reads a private key from the specified file.
func Load(path string) (*ecdsa.PrivateKey, error) {
	pk, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("load private key %q: %w", path, err)
	}

	return pk, nil
}

// Resolve returns a private key from either a hex string or a key file. The
// hex string wins when both are set.
func Resolve(hexKey string, path string) (*ecdsa.PrivateKey, error) {
	switch {
	case strings.TrimSpace(hexKey) != "":
		return ParseHex(hexKey)
	case path != "":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("key file: %w", err)
		}
		return Load(path)
	}

	return nil, ErrNoKey
}

// Generate creates a new private key and saves it to the specified file.
func Generate(path string) (*ecdsa.PrivateKey, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	if err := crypto.SaveECDSA(path, pk); err != nil {
		return nil, fmt.Errorf("save private key %q: %w", path, err)
	}

	return pk, nil
}

// Address returns the account address for the private key.
func Address(pk *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(pk.PublicKey)
}

// =============================================================================

// SignTx signs the transaction for the specified chain.
func SignTx(tx *types.Transaction, chainID *big.Int, pk *ecdsa.PrivateKey) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), pk)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	return signed, nil
}

// Sender extracts the address for the account that signed the transaction.
func Sender(tx *types.Transaction, chainID *big.Int) (common.Address, error) {

	// The signer checks the chain id embedded in the signature so a
	// transaction signed for another chain is rejected here.
	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover sender: %w", err)
	}

	return from, nil
}
