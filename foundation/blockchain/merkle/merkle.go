// Package merkle provides a fixed depth keccak256 merkle tree used to commit
// to batches of block hashes. Leaves beyond the supplied data are padded with
// the zero hash so every tree of the same depth has the same shape.
package merkle

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Set of error variables for tree construction and proofs.
var (
	ErrNoLeaves      = errors.New("cannot construct tree with no content")
	ErrTooManyLeaves = errors.New("too many leaves for tree depth")
	ErrIndexRange    = errors.New("leaf index out of range")
	ErrInvalidProof  = errors.New("merkle proof does not produce the root")
)

// HashPair is the function used to combine two sibling nodes.
type HashPair func(left, right common.Hash) common.Hash

// Keccak combines two nodes as keccak256(left || right).
func Keccak(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

// =============================================================================

// Tree represents a binary merkle tree with 2^depth leaves.
type Tree struct {
	MerkleRoot   common.Hash
	leafs        []common.Hash
	levels       [][]common.Hash
	depth        int
	hashStrategy HashPair
}

// WithDepth fixes the depth of the tree. Without this option the depth is the
// smallest one that can hold all the leaves.
func WithDepth(depth int) func(t *Tree) {
	return func(t *Tree) {
		t.depth = depth
	}
}

// WithHashStrategy is used to change the default hash strategy of using
// keccak256 when constructing a new tree.
func WithHashStrategy(hashStrategy HashPair) func(t *Tree) {
	return func(t *Tree) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree over the specified leaves.
func NewTree(leaves []common.Hash, options ...func(t *Tree)) (*Tree, error) {
	t := Tree{
		depth:        -1,
		hashStrategy: Keccak,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(leaves); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the levels of the tree from the specified leaves. If
// the tree has been generated previously, the tree is re-generated from
// scratch.
func (t *Tree) Generate(leaves []common.Hash) error {
	if len(leaves) == 0 {
		return ErrNoLeaves
	}

	depth := t.depth
	if depth < 0 {
		depth = bits.Len(uint(len(leaves) - 1))
	}

	size := 1 << depth
	if len(leaves) > size {
		return fmt.Errorf("%w: %d leaves, depth %d", ErrTooManyLeaves, len(leaves), depth)
	}

	level := make([]common.Hash, size)
	copy(level, leaves)

	levels := [][]common.Hash{level}
	for len(level) > 1 {
		next := make([]common.Hash, len(level)/2)
		for i := range next {
			next[i] = t.hashStrategy(level[2*i], level[2*i+1])
		}
		levels = append(levels, next)
		level = next
	}

	t.leafs = append([]common.Hash(nil), leaves...)
	t.levels = levels
	t.depth = depth
	t.MerkleRoot = level[0]

	return nil
}

// Depth returns the number of levels between a leaf and the root.
func (t *Tree) Depth() int {
	return t.depth
}

// Proof returns the sibling hashes from the leaf at the specified index up to
// the root. The position of each sibling is given by the bits of the index:
// a zero bit at level i means the sibling at proof[i] is concatenated second.
func (t *Tree) Proof(index int) ([]common.Hash, error) {
	if index < 0 || index >= len(t.leafs) {
		return nil, fmt.Errorf("%w: %d", ErrIndexRange, index)
	}

	proof := make([]common.Hash, t.depth)
	for d := 0; d < t.depth; d++ {
		proof[d] = t.levels[d][index^1]
		index >>= 1
	}

	return proof, nil
}

// Verify recalculates every level of the tree and checks the result matches
// the stored root.
func (t *Tree) Verify() error {
	cpy := Tree{depth: t.depth, hashStrategy: t.hashStrategy}
	if err := cpy.Generate(t.leafs); err != nil {
		return err
	}

	if cpy.MerkleRoot != t.MerkleRoot {
		return errors.New("root hash invalid")
	}

	return nil
}

// Values returns the leaves the tree was constructed with, without padding.
func (t *Tree) Values() []common.Hash {
	return append([]common.Hash(nil), t.leafs...)
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree) RootHex() string {
	return t.MerkleRoot.Hex()
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree) String() string {
	s := ""
	for i, l := range t.leafs {
		s += fmt.Sprintf("%d %s\n", i, l.Hex())
	}

	return s
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the Merkle tree. Use the Values function to
// return a slice that can be marshaled.
func (t *Tree) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// =============================================================================

// VerifyProof recomputes a keccak256 root from a leaf, its index, and the
// proof produced by Tree.Proof.
func VerifyProof(leaf common.Hash, index uint64, proof []common.Hash, root common.Hash) error {
	if got := ComputeRoot(leaf, index, proof); got != root {
		return fmt.Errorf("%w: got %s, want %s", ErrInvalidProof, got.Hex(), root.Hex())
	}

	return nil
}

// ComputeRoot walks the proof from the leaf to the root.
func ComputeRoot(leaf common.Hash, index uint64, proof []common.Hash) common.Hash {
	node := leaf
	for _, sibling := range proof {
		if index&1 == 0 {
			node = Keccak(node, sibling)
		} else {
			node = Keccak(sibling, node)
		}
		index >>= 1
	}

	return node
}
