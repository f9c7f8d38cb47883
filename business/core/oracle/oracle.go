// Package oracle submits block hash witnesses and RLP headers to the gas
// price oracle contract and waits for the transactions to be mined.
package oracle

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/business/sys/metrics"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Set of error variables for submitting transactions.
var (
	ErrReverted     = errors.New("transaction reverted")
	ErrNoBaseFee    = errors.New("chain does not report a base fee")
	ErrZeroContract = errors.New("contract address is not set")
)

const defaultPollInterval = time.Second

// Backend represents the provider calls needed to sign, send and confirm a
// transaction. An ethclient.Client and a simchain.Chain both satisfy it.
type Backend interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Config represents the configuration required to construct an oracle.
type Config struct {
	Log          *zap.SugaredLogger
	Backend      Backend
	Contract     common.Address
	PrivateKey   *ecdsa.PrivateKey
	ChainID      uint64
	GasLimit     uint64
	PollInterval time.Duration
}

// Oracle signs and submits calls to the oracle contract. It is safe for
// concurrent use.
type Oracle struct {
	mu           sync.Mutex
	log          *zap.SugaredLogger
	backend      Backend
	contract     common.Address
	privateKey   *ecdsa.PrivateKey
	from         common.Address
	chainID      *big.Int
	gasLimit     uint64
	pollInterval time.Duration
	abi          abi.ABI
}

// New constructs an oracle for the configured contract and signer.
func New(cfg Config) (*Oracle, error) {
	if cfg.Backend == nil {
		return nil, errors.New("backend is required")
	}

	if cfg.PrivateKey == nil {
		return nil, signature.ErrNoKey
	}

	if cfg.Contract == (common.Address{}) {
		return nil, ErrZeroContract
	}

	if cfg.ChainID == 0 {
		return nil, errors.New("chain id is required")
	}

	contract, err := ParseABI()
	if err != nil {
		return nil, err
	}

	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	o := Oracle{
		log:          cfg.Log,
		backend:      cfg.Backend,
		contract:     cfg.Contract,
		privateKey:   cfg.PrivateKey,
		from:         signature.Address(cfg.PrivateKey),
		chainID:      new(big.Int).SetUint64(cfg.ChainID),
		gasLimit:     cfg.GasLimit,
		pollInterval: cfg.PollInterval,
		abi:          contract,
	}

	return &o, nil
}

// From returns the address transactions are sent from.
func (o *Oracle) From() common.Address {
	return o.from
}

// Contract returns the address of the oracle contract.
func (o *Oracle) Contract() common.Address {
	return o.contract
}

// Prepare builds and signs the provideGasPrice transaction without sending it.
func (o *Oracle) Prepare(ctx context.Context, w query.BlockHashWitness, rlpHeader []byte) (*types.Transaction, error) {
	data, err := pack(o.abi, w, rlpHeader)
	if err != nil {
		return nil, err
	}

	nonce, err := o.backend.PendingNonceAt(ctx, o.from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}

	tip, err := o.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest tip: %w", err)
	}

	head, err := o.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}

	if head.BaseFee == nil {
		return nil, ErrNoBaseFee
	}

	// Leave room for the base fee to double before the transaction is
	// included.
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	gas := o.gasLimit
	if gas == 0 {
		msg := ethereum.CallMsg{
			From:      o.from,
			To:        &o.contract,
			GasFeeCap: feeCap,
			GasTipCap: tip,
			Data:      data,
		}

		if gas, err = o.backend.EstimateGas(ctx, msg); err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   o.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &o.contract,
		Value:     new(big.Int),
		Data:      data,
	})

	return signature.SignTx(tx, o.chainID, o.privateKey)
}

// ProvideGasPrice submits the witness and header to the contract. The
// returned transaction is pending; use Wait for the receipt.
func (o *Oracle) ProvideGasPrice(ctx context.Context, w query.BlockHashWitness, rlpHeader []byte) (*types.Transaction, error) {

	// The pending nonce is read in Prepare. Hold the lock until the node
	// has the transaction so the next caller reads the following nonce.
	o.mu.Lock()
	defer o.mu.Unlock()

	tx, err := o.Prepare(ctx, w, rlpHeader)
	if err != nil {
		metrics.RecordTransaction("failed")
		return nil, err
	}

	if err := o.backend.SendTransaction(ctx, tx); err != nil {
		metrics.RecordTransaction("failed")
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	metrics.RecordTransaction("sent")

	o.log.Infow("provide gas price", "status", "sent", "block", w.BlockNumber, "tx", tx.Hash().Hex(),
		"nonce", tx.Nonce(), "gas", tx.Gas(), "from", o.from.Hex(), "contract", o.contract.Hex())

	return tx, nil
}

// Wait polls for the receipt of the transaction until it is mined or the
// context is canceled. A mined transaction that failed returns ErrReverted
// with the receipt.
func (o *Oracle) Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := o.backend.TransactionReceipt(ctx, tx.Hash())
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				metrics.RecordTransaction("reverted")
				return receipt, fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
			}

			metrics.RecordTransaction("mined")
			o.log.Infow("provide gas price", "status", "mined", "tx", tx.Hash().Hex(),
				"block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)

			return receipt, nil

		case errors.Is(err, ethereum.NotFound):

		default:
			o.log.Infow("provide gas price", "status", "receipt retrieval failed", "tx", tx.Hash().Hex(), "ERROR", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
