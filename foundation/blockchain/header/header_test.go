package header_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/header"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_RoundTrip(t *testing.T) {
	h := types.Header{
		ParentHash:  common.HexToHash("0xabcdef"),
		UncleHash:   types.EmptyUncleHash,
		Root:        common.HexToHash("0x1234"),
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  big.NewInt(0),
		Number:      big.NewInt(9070887),
		GasLimit:    30_000_000,
		GasUsed:     12_345_678,
		Time:        1_685_000_000,
		Extra:       []byte("blockwitness"),
		BaseFee:     big.NewInt(1_000_000_007),
	}

	t.Log("Given the need to encode a block header.")
	{
		t.Logf("\tTest 0:\tWhen handling a london header.")
		{
			b, err := header.Encode(&h)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to encode the header: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to encode the header.", success)

			if err := header.Verify(b, h.Hash()); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould hash to the block hash: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould hash to the block hash.", success)

			got, err := header.Decode(b)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the header: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to decode the header.", success)

			if got.Hash() != h.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould decode to the same header.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould decode to the same header.", success)

			if err := header.Verify(b, common.Hash{}); !errors.Is(err, header.ErrHashMismatch) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the wrong hash: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the wrong hash.", success)
		}

		t.Logf("\tTest 1:\tWhen handling garbage bytes.")
		{
			if _, err := header.Decode([]byte{0x01, 0x02}); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould fail to decode.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould fail to decode.", success)
		}
	}
}
