// Package query provides a client for reading block derived data from a
// chain provider: block headers in RLP form and witnesses proving a block
// hash belongs to a committed batch of block hashes.
package query

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ardanlabs/blockwitness/business/sys/validate"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/simchain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Version1 is the only supported query version.
const Version1 = "v1"

// defaultConcurrency is the number of headers fetched in parallel.
const defaultConcurrency = 16

// Reader represents the provider calls the client needs. An ethclient.Client
// and a simchain.Chain both satisfy it.
type Reader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Provider represents the connection New builds. Beyond the reads it accepts
// signed transactions, so it can back the oracle as well.
type Provider interface {
	Reader
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Config represents the configuration required to construct a client.
type Config struct {
	ProviderURI string `validate:"required,url"`
	Version     string `validate:"required"`
	ChainID     uint64 `validate:"gt=0"`
	Mock        bool
	MockHead    uint64
	Concurrency int `validate:"gte=0,lte=256"`
}

// Client provides access to block data for a single chain.
type Client struct {
	cfg      Config
	log      *zap.SugaredLogger
	reader   Reader
	provider Provider
	closer   func()

	// Block provides the block level queries.
	Block *Block
}

// New constructs a client from the configuration. In mock mode the client
// reads a simulated chain, otherwise it dials the provider. The connection
// is available from Provider and is closed by Close.
func New(ctx context.Context, log *zap.SugaredLogger, cfg Config) (*Client, error) {
	if err := check(cfg); err != nil {
		return nil, err
	}

	var provider Provider
	switch {
	case cfg.Mock:
		log.Infow("query", "status", "using simulated chain", "chainid", cfg.ChainID, "head", cfg.MockHead)
		provider = simchain.New(cfg.ChainID, cfg.MockHead)

	default:
		log.Infow("query", "status", "dialing provider", "uri", cfg.ProviderURI)

		ec, err := ethclient.DialContext(ctx, cfg.ProviderURI)
		if err != nil {
			return nil, fmt.Errorf("dialing provider: %w", err)
		}
		provider = ec
	}

	client, err := NewWithReader(ctx, log, cfg, provider)
	if err != nil {
		provider.Close()
		return nil, err
	}
	client.provider = provider
	client.closer = provider.Close

	return client, nil
}

// NewWithReader constructs a client that reads from the specified reader. The
// reader must serve the configured chain.
func NewWithReader(ctx context.Context, log *zap.SugaredLogger, cfg Config, reader Reader) (*Client, error) {
	if err := check(cfg); err != nil {
		return nil, err
	}

	if cfg.Concurrency == 0 {
		cfg.Concurrency = defaultConcurrency
	}

	reader = instrument(reader)

	chainID, err := reader.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}

	if chainID.Cmp(new(big.Int).SetUint64(cfg.ChainID)) != 0 {
		return nil, fmt.Errorf("%w: provider %v, config %d", ErrChainMismatch, chainID, cfg.ChainID)
	}

	c := Client{
		cfg:    cfg,
		log:    log,
		reader: reader,
		closer: func() {},
	}
	c.Block = &Block{
		client:      &c,
		concurrency: cfg.Concurrency,
	}

	return &c, nil
}

// Provider returns the connection built by New. It is nil for a client
// constructed with NewWithReader.
func (c *Client) Provider() Provider {
	return c.provider
}

// Close releases the provider connection.
func (c *Client) Close() {
	c.closer()
}

// Config returns a copy of the configuration the client is using.
func (c *Client) Config() Config {
	return c.cfg
}

// Head returns the current head block number of the provider.
func (c *Client) Head(ctx context.Context) (uint64, error) {
	return c.reader.BlockNumber(ctx)
}

// NewQueryBuilder returns an empty query builder bound to the client.
func (c *Client) NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		client: c,
		seen:   make(map[rowKey]struct{}),
	}
}

// =============================================================================

func check(cfg Config) error {
	if err := validate.Check(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	if cfg.Version != Version1 {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, cfg.Version)
	}

	return nil
}
