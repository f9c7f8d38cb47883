// Package simchain provides a deterministic, in memory chain that answers the
// subset of JSON-RPC calls the prover makes. It backs the mock mode of the
// query client and accepts the oracle transactions so the complete flow can
// run without a node.
package simchain

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultHead is the head block number used when none is configured. It sits
// above the block the demo flow queries.
const DefaultHead = 9_072_000

// DefaultHistory is the number of blocks below the head that are available.
const DefaultHistory = 4096

const (
	gasLimit    = 30_000_000
	genesisTime = 1_548_854_791
	blockTime   = 12
	gwei        = 1_000_000_000
)

// =============================================================================

// Chain represents the simulated chain.
type Chain struct {
	chainID  *big.Int
	head     uint64
	base     uint64
	history  uint64
	headers  []*types.Header
	confirms int
	reverts  func(tx *types.Transaction) bool

	mu       sync.Mutex
	nonces   map[common.Address]uint64
	pending  map[common.Hash]int
	receipts map[common.Hash]*types.Receipt
	txs      []*types.Transaction
}

// WithHistory changes the number of blocks kept below the head.
func WithHistory(history uint64) func(c *Chain) {
	return func(c *Chain) {
		c.history = history
	}
}

// WithConfirmations sets how many receipt lookups return not found before a
// sent transaction is reported as mined.
func WithConfirmations(polls int) func(c *Chain) {
	return func(c *Chain) {
		c.confirms = polls
	}
}

// WithReverts provides a function that decides if a sent transaction reverts.
func WithReverts(fn func(tx *types.Transaction) bool) func(c *Chain) {
	return func(c *Chain) {
		c.reverts = fn
	}
}

// New constructs a simulated chain for the specified chain id with headers
// generated up to and including head.
func New(chainID uint64, head uint64, options ...func(c *Chain)) *Chain {
	if head == 0 {
		head = DefaultHead
	}

	c := Chain{
		chainID:  new(big.Int).SetUint64(chainID),
		head:     head,
		history:  DefaultHistory,
		nonces:   make(map[common.Address]uint64),
		pending:  make(map[common.Hash]int),
		receipts: make(map[common.Hash]*types.Receipt),
	}

	for _, option := range options {
		option(&c)
	}

	if c.history > head {
		c.history = head
	}
	c.base = head - c.history

	c.headers = make([]*types.Header, 0, c.history+1)
	parent := crypto.Keccak256Hash([]byte("simchain-parent"), uint64Bytes(c.base))
	for n := c.base; n <= head; n++ {
		h := generate(n, parent)
		c.headers = append(c.headers, h)
		parent = h.Hash()
	}

	return &c
}

// Head returns the current head block number.
func (c *Chain) Head() uint64 {
	return c.head
}

// Base returns the oldest block number the chain can serve.
func (c *Chain) Base() uint64 {
	return c.base
}

// Transactions returns a copy of the transactions accepted so far.
func (c *Chain) Transactions() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*types.Transaction(nil), c.txs...)
}

// Close exists so the chain can stand in for a node connection.
func (c *Chain) Close() {}

// =============================================================================

// ChainID returns the configured chain id.
func (c *Chain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

// BlockNumber returns the head block number.
func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	return c.head, nil
}

// HeaderByNumber returns the header for the specified block. A nil number
// returns the head.
func (c *Chain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := c.head
	if number != nil {
		if !number.IsUint64() {
			return nil, ethereum.NotFound
		}
		n = number.Uint64()
	}

	if n < c.base || n > c.head {
		return nil, ethereum.NotFound
	}

	return types.CopyHeader(c.headers[n-c.base]), nil
}

// =============================================================================

// PendingNonceAt returns the next nonce for the account.
func (c *Chain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.nonces[account], nil
}

// SuggestGasTipCap returns a fixed tip of one gwei.
func (c *Chain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(gwei), nil
}

// EstimateGas charges the intrinsic cost of the call data plus a fixed amount
// for execution.
func (c *Chain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	const execution = 60_000

	gas := uint64(21_000 + execution)
	for _, b := range msg.Data {
		if b == 0 {
			gas += 4
			continue
		}
		gas += 16
	}

	return gas, nil
}

// SendTransaction accepts a signed transaction. The sender must be valid for
// the chain id and the nonce must be the next one for the account.
func (c *Chain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	from, err := signature.Sender(tx, c.chainID)
	if err != nil {
		return err
	}

	head := c.headers[len(c.headers)-1]
	if tx.GasFeeCap().Cmp(head.BaseFee) < 0 {
		return fmt.Errorf("max fee per gas less than block base fee: %v < %v", tx.GasFeeCap(), head.BaseFee)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.receipts[tx.Hash()]; exists {
		return fmt.Errorf("already known: %s", tx.Hash().Hex())
	}

	switch next := c.nonces[from]; {
	case tx.Nonce() < next:
		return fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), next)
	case tx.Nonce() > next:
		return fmt.Errorf("nonce too high: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), next)
	}
	c.nonces[from]++

	status := types.ReceiptStatusSuccessful
	if c.reverts != nil && c.reverts(tx) {
		status = types.ReceiptStatusFailed
	}

	blockNumber := new(big.Int).SetUint64(c.head + 1)
	c.receipts[tx.Hash()] = &types.Receipt{
		Type:              tx.Type(),
		Status:            status,
		CumulativeGasUsed: tx.Gas(),
		TxHash:            tx.Hash(),
		GasUsed:           tx.Gas(),
		EffectiveGasPrice: head.BaseFee,
		BlockHash:         crypto.Keccak256Hash([]byte("simchain-block"), blockNumber.Bytes()),
		BlockNumber:       blockNumber,
		TransactionIndex:  uint(len(c.txs)),
	}
	c.pending[tx.Hash()] = c.confirms
	c.txs = append(c.txs, tx)

	return nil
}

// TransactionReceipt returns the receipt of a mined transaction. Until the
// configured number of confirmations have been polled it returns NotFound
// like a node does for a pending transaction.
func (c *Chain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	receipt, exists := c.receipts[txHash]
	if !exists {
		return nil, ethereum.NotFound
	}

	if c.pending[txHash] > 0 {
		c.pending[txHash]--
		return nil, ethereum.NotFound
	}

	cpy := *receipt
	return &cpy, nil
}

// =============================================================================

// generate constructs the deterministic header for block n.
func generate(n uint64, parent common.Hash) *types.Header {
	nb := uint64Bytes(n)

	return &types.Header{
		ParentHash:  parent,
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    common.BytesToAddress(crypto.Keccak256([]byte("simchain-coinbase"))),
		Root:        crypto.Keccak256Hash([]byte("simchain-state"), nb),
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  new(big.Int),
		Number:      new(big.Int).SetUint64(n),
		GasLimit:    gasLimit,
		GasUsed:     gasLimit/2 + (n*7919)%(gasLimit/4),
		Time:        genesisTime + n*blockTime,
		Extra:       []byte("simchain"),
		MixDigest:   crypto.Keccak256Hash([]byte("simchain-mix"), nb),
		BaseFee:     new(big.Int).SetUint64(gwei + (n%97)*10_000_000),
	}
}

func uint64Bytes(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b[:]
}
