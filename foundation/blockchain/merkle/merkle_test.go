package merkle_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func leaves(n int) []common.Hash {
	hs := make([]common.Hash, n)
	for i := range hs {
		hs[i] = crypto.Keccak256Hash([]byte{byte(i), byte(i >> 8)})
	}
	return hs
}

// =============================================================================

func Test_Root(t *testing.T) {
	ls := leaves(3)

	t.Log("Given the need to calculate a merkle root.")
	{
		t.Logf("\tTest 0:\tWhen handling three leaves with an automatic depth.")
		{
			tree, err := merkle.NewTree(ls)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the tree: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct the tree.", success)

			if tree.Depth() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have a depth of 2, got %d.", failed, tree.Depth())
			}
			t.Logf("\t%s\tTest 0:\tShould have a depth of 2.", success)

			exp := merkle.Keccak(merkle.Keccak(ls[0], ls[1]), merkle.Keccak(ls[2], common.Hash{}))
			if tree.MerkleRoot != exp {
				t.Fatalf("\t%s\tTest 0:\tShould pad with the zero hash: got %s, exp %s", failed, tree.RootHex(), exp.Hex())
			}
			t.Logf("\t%s\tTest 0:\tShould pad with the zero hash.", success)

			if err := tree.Verify(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould verify the tree: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould verify the tree.", success)

			if got := len(tree.Values()); got != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould return the unpadded values, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould return the unpadded values.", success)
		}

		t.Logf("\tTest 1:\tWhen handling a single leaf.")
		{
			tree, err := merkle.NewTree(ls[:1])
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to construct the tree: %v", failed, err)
			}

			if tree.MerkleRoot != ls[0] {
				t.Fatalf("\t%s\tTest 1:\tShould use the leaf as the root.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould use the leaf as the root.", success)
		}
	}
}

func Test_Proof(t *testing.T) {
	type table struct {
		name   string
		leaves int
		depth  int
	}

	tt := []table{
		{name: "full", leaves: 8, depth: 3},
		{name: "partial", leaves: 5, depth: 3},
		{name: "batch", leaves: 700, depth: 10},
		{name: "single", leaves: 1, depth: 10},
	}

	t.Log("Given the need to prove a leaf is in the tree.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s tree.", testID, tst.name)
			{
				f := func(t *testing.T) {
					ls := leaves(tst.leaves)

					tree, err := merkle.NewTree(ls, merkle.WithDepth(tst.depth))
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct the tree: %v", failed, testID, err)
					}

					for i, leaf := range ls {
						proof, err := tree.Proof(i)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to get proof %d: %v", failed, testID, i, err)
						}

						if len(proof) != tst.depth {
							t.Fatalf("\t%s\tTest %d:\tShould have a proof of length %d, got %d.", failed, testID, tst.depth, len(proof))
						}

						if err := merkle.VerifyProof(leaf, uint64(i), proof, tree.MerkleRoot); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould verify proof %d: %v", failed, testID, i, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould verify a proof for every leaf.", success, testID)

					proof, _ := tree.Proof(0)
					if err := merkle.VerifyProof(common.HexToHash("0x01"), 0, proof, tree.MerkleRoot); !errors.Is(err, merkle.ErrInvalidProof) {
						t.Fatalf("\t%s\tTest %d:\tShould reject a proof for the wrong leaf: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject a proof for the wrong leaf.", success, testID)

					if _, err := tree.Proof(tst.leaves); !errors.Is(err, merkle.ErrIndexRange) {
						t.Fatalf("\t%s\tTest %d:\tShould reject an index past the leaves: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject an index past the leaves.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Errors(t *testing.T) {
	t.Log("Given the need to reject bad trees.")
	{
		t.Logf("\tTest 0:\tWhen handling no leaves.")
		{
			if _, err := merkle.NewTree(nil); !errors.Is(err, merkle.ErrNoLeaves) {
				t.Fatalf("\t%s\tTest 0:\tShould fail with no leaves: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail with no leaves.", success)
		}

		t.Logf("\tTest 1:\tWhen handling more leaves than the depth allows.")
		{
			if _, err := merkle.NewTree(leaves(5), merkle.WithDepth(2)); !errors.Is(err, merkle.ErrTooManyLeaves) {
				t.Fatalf("\t%s\tTest 1:\tShould fail with too many leaves: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail with too many leaves.", success)
		}
	}
}
