package query

import (
	"encoding/binary"
	"fmt"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Block hashes are committed in aligned batches of BatchSize blocks.
const (
	BatchDepth = 10
	BatchSize  = 1 << BatchDepth
)

// BlockHashWitness proves a block hash is a leaf of the batch commitment
// for the batch that contains the block.
type BlockHashWitness struct {
	BlockNumber      uint32                  `json:"blockNumber"`
	ClaimedBlockHash common.Hash             `json:"claimedBlockHash"`
	PrevHash         common.Hash             `json:"prevHash"`
	NumFinal         uint32                  `json:"numFinal"`
	MerkleProof      [BatchDepth]common.Hash `json:"merkleProof"`
}

// BatchStart returns the first block of the batch holding the block.
func (w BlockHashWitness) BatchStart() uint32 {
	return w.BlockNumber - w.BlockNumber%BatchSize
}

// Root recomputes the batch merkle root from the claimed hash and the proof.
func (w BlockHashWitness) Root() common.Hash {
	return merkle.ComputeRoot(w.ClaimedBlockHash, uint64(w.BlockNumber%BatchSize), w.MerkleProof[:])
}

// Commitment returns the batch commitment the witness resolves to.
func (w BlockHashWitness) Commitment() common.Hash {
	return Commitment(w.PrevHash, w.Root(), w.NumFinal)
}

// Batch describes a committed batch of block hashes.
type Batch struct {
	Start      uint32      `json:"start"`
	NumFinal   uint32      `json:"numFinal"`
	PrevHash   common.Hash `json:"prevHash"`
	Root       common.Hash `json:"root"`
	Commitment common.Hash `json:"commitment"`
}

// =============================================================================

// Commitment computes keccak256(prevHash || root || numFinal) with numFinal
// packed as a big endian uint32.
func Commitment(prevHash common.Hash, root common.Hash, numFinal uint32) common.Hash {
	var nf [4]byte
	binary.BigEndian.PutUint32(nf[:], numFinal)

	return crypto.Keccak256Hash(prevHash[:], root[:], nf[:])
}

// VerifyWitness checks the witness proves its claimed hash against the
// specified batch root.
func VerifyWitness(w BlockHashWitness, root common.Hash) error {
	index := w.BlockNumber % BatchSize

	if w.NumFinal == 0 || w.NumFinal > BatchSize {
		return fmt.Errorf("%w: numFinal %d", ErrInvalidWitness, w.NumFinal)
	}

	if index >= w.NumFinal {
		return fmt.Errorf("%w: index %d beyond numFinal %d", ErrInvalidWitness, index, w.NumFinal)
	}

	if err := merkle.VerifyProof(w.ClaimedBlockHash, uint64(index), w.MerkleProof[:], root); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWitness, err)
	}

	return nil
}
