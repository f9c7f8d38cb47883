// Package header encodes and decodes block headers in their canonical RLP
// form. The keccak256 of the encoding is the block hash, which is what a
// contract checks when it is handed a header.
package header

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrHashMismatch is returned when an encoded header does not hash to the
// expected block hash.
var ErrHashMismatch = errors.New("rlp header hash mismatch")

// Encode returns the RLP encoding of the header.
func Encode(h *types.Header) ([]byte, error) {
	if h == nil {
		return nil, errors.New("nil header")
	}

	b, err := rlp.EncodeToBytes(h)
	if err != nil {
		return nil, fmt.Errorf("rlp encode header %v: %w", h.Number, err)
	}

	// The encoding must round trip to the hash the node reported. A mismatch
	// means the local header type does not know about a field the chain uses.
	if got := crypto.Keccak256Hash(b); got != h.Hash() {
		return nil, fmt.Errorf("%w: block %v: got %s, want %s", ErrHashMismatch, h.Number, got.Hex(), h.Hash().Hex())
	}

	return b, nil
}

// Decode parses an RLP encoded header.
func Decode(b []byte) (*types.Header, error) {
	var h types.Header
	if err := rlp.DecodeBytes(b, &h); err != nil {
		return nil, fmt.Errorf("rlp decode header: %w", err)
	}

	return &h, nil
}

// Hash returns the block hash committed to by the encoded header.
func Hash(b []byte) common.Hash {
	return crypto.Keccak256Hash(b)
}

// Verify checks the encoded header belongs to the specified block hash.
func Verify(b []byte, want common.Hash) error {
	if got := Hash(b); got != want {
		return fmt.Errorf("%w: got %s, want %s", ErrHashMismatch, got.Hex(), want.Hex())
	}

	return nil
}
