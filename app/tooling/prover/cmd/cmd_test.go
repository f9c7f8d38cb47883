package cmd

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ethereum/go-ethereum/common"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_ParseBlock(t *testing.T) {
	t.Log("Given the need to read the block argument.")
	{
		t.Logf("\tTest 0:\tWhen no block is given.")
		{
			n, err := parseBlock(nil)
			if err != nil || n != defaultBlock {
				t.Fatalf("\t%s\tTest 0:\tShould use the default block: %d %v", failed, n, err)
			}
			t.Logf("\t%s\tTest 0:\tShould use the default block.", success)
		}

		t.Logf("\tTest 1:\tWhen the block is not a number.")
		{
			_, err := parseBlock([]string{"latest"})
			if !errors.Is(err, strconv.ErrSyntax) {
				t.Fatalf("\t%s\tTest 1:\tShould fail to parse: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail to parse.", success)
		}
	}
}

func Test_QueryRows(t *testing.T) {
	queryAddress = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	querySlots = []string{"0x00", "0x01"}
	defer func() {
		queryAddress = ""
		querySlots = nil
	}()

	t.Log("Given the need to expand query arguments.")
	{
		t.Logf("\tTest 0:\tWhen two blocks and two slots are given.")
		{
			rows, err := queryRows([]string{"100", "200"})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould expand the rows: %v", failed, err)
			}

			if len(rows) != 6 {
				t.Fatalf("\t%s\tTest 0:\tShould produce six rows, got %d.", failed, len(rows))
			}
			t.Logf("\t%s\tTest 0:\tShould produce six rows.", success)

			if *rows[2].Address != common.HexToAddress(queryAddress) || *rows[2].Slot != common.HexToHash("0x01") {
				t.Fatalf("\t%s\tTest 0:\tShould attach the address and slot: %v", failed, rows[2])
			}
			t.Logf("\t%s\tTest 0:\tShould attach the address and slot.", success)
		}

		t.Logf("\tTest 1:\tWhen a slot is longer than 32 bytes.")
		{
			querySlots = []string{"0x" + strings.Repeat("ab", 40)}

			if _, err := queryRows([]string{"100"}); !errors.Is(err, query.ErrInvalidSlot) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the slot: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the slot.", success)
		}
	}
}
