package query_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ethereum/go-ethereum/common"
)

func Test_QueryBuilder(t *testing.T) {
	ctx := context.Background()
	client, chain := newClient(t)

	addr := common.HexToAddress("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	slot := common.HexToHash("0x02")

	t.Log("Given the need to build a query.")
	{
		t.Logf("\tTest 0:\tWhen appending rows in any order.")
		{
			qb1 := client.NewQueryBuilder()
			qb2 := client.NewQueryBuilder()

			rows := []query.Row{
				{BlockNumber: 4000, Address: &addr, Slot: &slot},
				{BlockNumber: 3000},
				{BlockNumber: 4000, Address: &addr},
			}

			for i := range rows {
				if err := qb1.Append(rows[i]); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould append row %d: %v", failed, i, err)
				}
				if err := qb2.Append(rows[len(rows)-1-i]); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould append row %d: %v", failed, i, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould append the rows.", success)

			q1, err := qb1.Build(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould build the query: %v", failed, err)
			}
			q2, err := qb2.Build(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould build the query: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould build the query.", success)

			if q1.QueryHash != q2.QueryHash {
				t.Fatalf("\t%s\tTest 0:\tShould not depend on append order.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not depend on append order.", success)

			if q1.Rows[0].BlockNumber != 3000 || q1.Rows[1].Slot != nil || q1.Rows[2].Slot == nil {
				t.Fatalf("\t%s\tTest 0:\tShould sort the rows: %v", failed, q1.Rows)
			}
			t.Logf("\t%s\tTest 0:\tShould sort the rows.", success)

			if q1.Depth != 2 || len(q1.Leaves) != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould pad to four leaves: depth %d leaves %d", failed, q1.Depth, len(q1.Leaves))
			}
			t.Logf("\t%s\tTest 0:\tShould pad to four leaves.", success)
		}

		t.Logf("\tTest 1:\tWhen appending invalid rows.")
		{
			qb := client.NewQueryBuilder()

			if err := qb.Append(query.Row{BlockNumber: 1, Slot: &slot}); !errors.Is(err, query.ErrSlotWithoutAddress) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a slot without an address: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a slot without an address.", success)

			if err := qb.Append(query.Row{BlockNumber: 1}); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould append the row: %v", failed, err)
			}
			if err := qb.Append(query.Row{BlockNumber: 1}); !errors.Is(err, query.ErrDuplicateRow) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a duplicate row: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a duplicate row.", success)

			for i := qb.Len(); i < query.MaxRows; i++ {
				if err := qb.Append(query.Row{BlockNumber: uint32(100 + i)}); err != nil {
					t.Fatalf("\t%s\tTest 1:\tShould append row %d: %v", failed, i, err)
				}
			}
			if err := qb.Append(query.Row{BlockNumber: 9}); !errors.Is(err, query.ErrTooManyRows) {
				t.Fatalf("\t%s\tTest 1:\tShould reject row %d: %v", failed, query.MaxRows+1, err)
			}
			t.Logf("\t%s\tTest 1:\tShould cap the number of rows.", success)
		}

		t.Logf("\tTest 2:\tWhen building queries that cannot be answered.")
		{
			if _, err := client.NewQueryBuilder().Build(ctx); !errors.Is(err, query.ErrEmptyQuery) {
				t.Fatalf("\t%s\tTest 2:\tShould reject an empty query: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject an empty query.", success)

			qb := client.NewQueryBuilder()
			if err := qb.Append(query.Row{BlockNumber: uint32(chain.Head() + 1)}); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould append the row: %v", failed, err)
			}
			if _, err := qb.Build(ctx); !errors.Is(err, query.ErrBlockNotFinal) {
				t.Fatalf("\t%s\tTest 2:\tShould reject a block above the head: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject a block above the head.", success)
		}
	}
}

func Test_ParseSlot(t *testing.T) {
	tt := []struct {
		name string
		slot string
		exp  common.Hash
		err  error
	}{
		{name: "short", slot: "0x01", exp: common.HexToHash("0x01")},
		{name: "full", slot: "0x" + strings.Repeat("ab", 32), exp: common.HexToHash("0x" + strings.Repeat("ab", 32))},
		{name: "long", slot: "0x" + strings.Repeat("ab", 33), err: query.ErrInvalidSlot},
		{name: "noprefix", slot: "01", err: query.ErrInvalidSlot},
		{name: "nothex", slot: "0xzz", err: query.ErrInvalidSlot},
	}

	t.Log("Given the need to parse storage slots.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen parsing the %s slot.", testID, tst.name)
			{
				got, err := query.ParseSlot(tst.slot)
				if tst.err != nil {
					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould fail with %v: %v", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould fail.", success, testID)
					continue
				}

				if err != nil || got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould decode %s, got %s: %v", failed, testID, tst.exp.Hex(), got.Hex(), err)
				}
				t.Logf("\t%s\tTest %d:\tShould decode the slot.", success, testID)
			}
		}
	}
}
