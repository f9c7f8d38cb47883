package query

import (
	"context"
	"math/big"
	"time"

	"github.com/ardanlabs/blockwitness/business/sys/metrics"
	"github.com/ethereum/go-ethereum/core/types"
)

// instrumented records provider call metrics for a reader.
type instrumented struct {
	Reader
}

func instrument(r Reader) Reader {
	if _, ok := r.(instrumented); ok {
		return r
	}
	return instrumented{r}
}

func (i instrumented) ChainID(ctx context.Context) (*big.Int, error) {
	start := time.Now()
	id, err := i.Reader.ChainID(ctx)
	metrics.RecordRPC("eth_chainId", err, time.Since(start).Seconds())
	return id, err
}

func (i instrumented) BlockNumber(ctx context.Context) (uint64, error) {
	start := time.Now()
	n, err := i.Reader.BlockNumber(ctx)
	metrics.RecordRPC("eth_blockNumber", err, time.Since(start).Seconds())
	return n, err
}

func (i instrumented) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	start := time.Now()
	h, err := i.Reader.HeaderByNumber(ctx, number)
	metrics.RecordRPC("eth_getBlockByNumber", err, time.Since(start).Seconds())
	return h, err
}
