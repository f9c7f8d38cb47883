package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/ardanlabs/blockwitness/business/sys/metrics"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/header"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block provides the block level queries of a client.
type Block struct {
	client      *Client
	concurrency int
}

// Header returns the header for the specified block.
func (b *Block) Header(ctx context.Context, number uint64) (*types.Header, error) {
	h, err := b.client.reader.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: %d", ErrBlockNotFound, number)
		}
		return nil, fmt.Errorf("header %d: %w", number, err)
	}

	if h == nil || h.Number == nil || h.Number.Uint64() != number {
		return nil, fmt.Errorf("%w: %d", ErrBlockNotFound, number)
	}

	return h, nil
}

// RLPHeader returns the RLP encoded header for the specified block.
func (b *Block) RLPHeader(ctx context.Context, number uint64) ([]byte, error) {
	h, err := b.Header(ctx, number)
	if err != nil {
		return nil, err
	}

	rlp, err := header.Encode(h)
	if err != nil {
		return nil, err
	}

	b.client.log.Infow("rlp header", "block", number, "hash", h.Hash().Hex(), "bytes", len(rlp))

	return rlp, nil
}

// HashWitness returns the witness proving the hash of the specified block is
// part of the commitment for its batch.
func (b *Block) HashWitness(ctx context.Context, number uint64) (w BlockHashWitness, err error) {
	defer func() {
		metrics.RecordWitness(err)
	}()

	batch, tree, err := b.batch(ctx, number)
	if err != nil {
		return BlockHashWitness{}, err
	}

	index := int(number - uint64(batch.Start))

	proof, err := tree.Proof(index)
	if err != nil {
		return BlockHashWitness{}, err
	}

	w = BlockHashWitness{
		BlockNumber:      uint32(number),
		ClaimedBlockHash: tree.Values()[index],
		PrevHash:         batch.PrevHash,
		NumFinal:         batch.NumFinal,
	}
	copy(w.MerkleProof[:], proof)

	b.client.log.Infow("hash witness", "block", number, "hash", w.ClaimedBlockHash.Hex(),
		"start", batch.Start, "numFinal", batch.NumFinal, "root", batch.Root.Hex())

	return w, nil
}

// Batch returns the commitment for the batch holding the specified block.
func (b *Block) Batch(ctx context.Context, number uint64) (Batch, error) {
	batch, _, err := b.batch(ctx, number)
	return batch, err
}

// =============================================================================

func (b *Block) batch(ctx context.Context, number uint64) (Batch, *merkle.Tree, error) {
	if number > math.MaxUint32 {
		return Batch{}, nil, fmt.Errorf("%w: %d", ErrBlockRange, number)
	}

	head, err := b.client.reader.BlockNumber(ctx)
	if err != nil {
		return Batch{}, nil, fmt.Errorf("query head: %w", err)
	}

	if number > head {
		return Batch{}, nil, fmt.Errorf("%w: block %d, head %d", ErrBlockNotFinal, number, head)
	}

	start := number - number%BatchSize
	end := min(start+BatchSize-1, head)

	b.client.log.Infow("hash witness", "status", "fetching batch", "block", number, "start", start, "end", end)

	headers, err := b.headers(ctx, start, end)
	if err != nil {
		return Batch{}, nil, err
	}

	leaves := make([]common.Hash, len(headers))
	for i, h := range headers {
		leaves[i] = h.Hash()
		if i > 0 && h.ParentHash != leaves[i-1] {
			return Batch{}, nil, fmt.Errorf("%w: block %d parent %s, want %s", ErrBrokenChain, start+uint64(i), h.ParentHash.Hex(), leaves[i-1].Hex())
		}
	}

	tree, err := merkle.NewTree(leaves, merkle.WithDepth(BatchDepth))
	if err != nil {
		return Batch{}, nil, err
	}

	batch := Batch{
		Start:    uint32(start),
		NumFinal: uint32(len(leaves)),
		PrevHash: headers[0].ParentHash,
		Root:     tree.MerkleRoot,
	}
	batch.Commitment = Commitment(batch.PrevHash, batch.Root, batch.NumFinal)

	return batch, tree, nil
}

// headers fetches the inclusive range of headers using a bounded set of
// goroutines. The first failure cancels the remaining work.
func (b *Block) headers(ctx context.Context, start uint64, end uint64) ([]*types.Header, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := int(end - start + 1)
	headers := make([]*types.Header, total)
	work := make(chan int)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

	workers := min(b.concurrency, total)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range work {
				h, err := b.Header(ctx, start+uint64(i))
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				headers[i] = h
			}
		}()
	}

feed:
	for i := 0; i < total; i++ {
		select {
		case work <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return headers, nil
}
