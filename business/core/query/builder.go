package query

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// MaxRows is the largest number of rows a single query can hold.
const MaxRows = 64

// Set of row kinds, used as the first byte of a row leaf.
const (
	rowBlock   byte = 0
	rowAccount byte = 1
	rowStorage byte = 2
)

// Row represents a single piece of state a query asks for. A row with only
// a block number asks for the block header, adding an address asks for the
// account and adding a slot asks for that storage slot of the account.
type Row struct {
	BlockNumber uint32          `json:"blockNumber"`
	Address     *common.Address `json:"address,omitempty"`
	Slot        *common.Hash    `json:"slot,omitempty"`
}

// ParseSlot decodes a 0x prefixed storage slot of at most 32 bytes. Shorter
// slots are left padded with zeros.
func ParseSlot(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %q: %s", ErrInvalidSlot, s, err)
	}

	if len(b) > common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %q is %d bytes", ErrInvalidSlot, s, len(b))
	}

	return common.BytesToHash(b), nil
}

// rowKey is the comparable form of a row.
type rowKey struct {
	block   uint32
	addr    common.Address
	hasAddr bool
	slot    common.Hash
	hasSlot bool
}

func (r Row) key() rowKey {
	k := rowKey{block: r.BlockNumber}
	if r.Address != nil {
		k.addr, k.hasAddr = *r.Address, true
	}
	if r.Slot != nil {
		k.slot, k.hasSlot = *r.Slot, true
	}
	return k
}

// leaf returns keccak256(kind || block || address || slot).
func (r Row) leaf() common.Hash {
	k := r.key()

	kind := rowBlock
	switch {
	case k.hasSlot:
		kind = rowStorage
	case k.hasAddr:
		kind = rowAccount
	}

	var block [4]byte
	binary.BigEndian.PutUint32(block[:], k.block)

	return crypto.Keccak256Hash([]byte{kind}, block[:], k.addr[:], k.slot[:])
}

// String implements the fmt.Stringer interface.
func (r Row) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "block:%d", r.BlockNumber)
	if r.Address != nil {
		fmt.Fprintf(&sb, " address:%s", r.Address.Hex())
	}
	if r.Slot != nil {
		fmt.Fprintf(&sb, " slot:%s", r.Slot.Hex())
	}
	return sb.String()
}

// =============================================================================

// Query is the result of building a set of rows.
type Query struct {
	Rows      []Row       `json:"rows"`
	Leaves    []string    `json:"leaves"`
	QueryHash common.Hash `json:"queryHash"`
	Depth     int         `json:"depth"`
}

// QueryBuilder collects rows for a query.
type QueryBuilder struct {
	client *Client
	rows   []Row
	seen   map[rowKey]struct{}
}

// Append adds a row to the query.
func (qb *QueryBuilder) Append(row Row) error {
	if row.Slot != nil && row.Address == nil {
		return fmt.Errorf("%w: %s", ErrSlotWithoutAddress, row)
	}

	if len(qb.rows) >= MaxRows {
		return fmt.Errorf("%w: max %d", ErrTooManyRows, MaxRows)
	}

	k := row.key()
	if _, exists := qb.seen[k]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRow, row)
	}

	qb.seen[k] = struct{}{}
	qb.rows = append(qb.rows, row)

	return nil
}

// Len returns the number of rows appended so far.
func (qb *QueryBuilder) Len() int {
	return len(qb.rows)
}

// Build validates every row refers to a final block and computes the
// query hash as the merkle root of the sorted row leaves.
func (qb *QueryBuilder) Build(ctx context.Context) (Query, error) {
	if len(qb.rows) == 0 {
		return Query{}, ErrEmptyQuery
	}

	head, err := qb.client.Head(ctx)
	if err != nil {
		return Query{}, fmt.Errorf("query head: %w", err)
	}

	rows := append([]Row(nil), qb.rows...)
	sort.Slice(rows, func(i, j int) bool {
		return less(rows[i].key(), rows[j].key())
	})

	leaves := make([]common.Hash, len(rows))
	hexLeaves := make([]string, len(rows))
	for i, row := range rows {
		if uint64(row.BlockNumber) > head {
			return Query{}, fmt.Errorf("%w: row %s, head %d", ErrBlockNotFinal, row, head)
		}
		leaves[i] = row.leaf()
		hexLeaves[i] = leaves[i].Hex()
	}

	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return Query{}, err
	}

	q := Query{
		Rows:      rows,
		Leaves:    hexLeaves,
		QueryHash: tree.MerkleRoot,
		Depth:     tree.Depth(),
	}

	return q, nil
}

// String implements the fmt.Stringer interface.
func (qb *QueryBuilder) String() string {
	cfg := qb.client.Config()

	rows := make([]string, len(qb.rows))
	for i, row := range qb.rows {
		rows[i] = row.String()
	}

	return fmt.Sprintf("QueryBuilder{version:%s chainId:%d mock:%t rows:[%s]}",
		cfg.Version, cfg.ChainID, cfg.Mock, strings.Join(rows, ", "))
}

// less orders rows by block, then address, then slot. Rows without an
// address or slot sort before rows that have one.
func less(a, b rowKey) bool {
	if a.block != b.block {
		return a.block < b.block
	}
	if a.hasAddr != b.hasAddr {
		return !a.hasAddr
	}
	if c := a.addr.Cmp(b.addr); c != 0 {
		return c < 0
	}
	if a.hasSlot != b.hasSlot {
		return !a.hasSlot
	}
	return a.slot.Cmp(b.slot) < 0
}
