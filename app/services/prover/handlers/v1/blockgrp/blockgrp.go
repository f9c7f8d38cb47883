// Package blockgrp maintains the group of handlers for block queries.
package blockgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/business/web/errs"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/header"
	"github.com/ardanlabs/blockwitness/foundation/events"
	"github.com/ardanlabs/blockwitness/foundation/web"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Handlers manages the set of block endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Client *query.Client
	Evts   *events.Events
}

// Witness returns the block hash witness for the specified block.
func (h Handlers) Witness(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, err := blockParam(r)
	if err != nil {
		return err
	}

	witness, err := h.Client.Block.HashWitness(ctx, number)
	if err != nil {
		return toTrusted(err)
	}

	h.Evts.Sendf(web.GetTraceID(ctx), events.KindWitness, number, "witness for %s, numFinal %d", witness.ClaimedBlockHash.Hex(), witness.NumFinal)

	return web.Respond(ctx, w, witness, http.StatusOK)
}

// Header returns the RLP encoded header for the specified block.
func (h Handlers) Header(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, err := blockParam(r)
	if err != nil {
		return err
	}

	rlp, err := h.Client.Block.RLPHeader(ctx, number)
	if err != nil {
		return toTrusted(err)
	}

	resp := headerResponse{
		Number: number,
		Hash:   header.Hash(rlp).Hex(),
		RLP:    hexutil.Encode(rlp),
	}

	h.Evts.Sendf(web.GetTraceID(ctx), events.KindHeader, number, "header %s, %d bytes", resp.Hash, len(rlp))

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Batch returns the commitment for the batch holding the specified block.
func (h Handlers) Batch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, err := blockParam(r)
	if err != nil {
		return err
	}

	batch, err := h.Client.Block.Batch(ctx, number)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, batch, http.StatusOK)
}

// Query builds a query from the posted rows.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req queryRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.BadRequest(err)
	}

	if len(req.Rows) == 0 {
		return errs.BadRequest(query.ErrEmptyQuery)
	}

	qb := h.Client.NewQueryBuilder()
	for _, row := range req.toRows() {
		if err := qb.Append(row); err != nil {
			return errs.BadRequest(err)
		}
	}

	q, err := qb.Build(ctx)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, q, http.StatusOK)
}

// =============================================================================

func blockParam(r *http.Request) (uint64, error) {
	s := web.Param(r, "number")

	number, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.BadRequest(fmt.Errorf("invalid block number %q", s))
	}

	return number, nil
}

// toTrusted maps the query errors a caller can act on to http statuses.
func toTrusted(err error) error {
	switch {
	case errors.Is(err, query.ErrBlockNotFound):
		return errs.NotFound(err)

	case errors.Is(err, query.ErrBlockNotFinal),
		errors.Is(err, query.ErrBlockRange),
		errors.Is(err, query.ErrEmptyQuery),
		errors.Is(err, query.ErrTooManyRows),
		errors.Is(err, query.ErrDuplicateRow),
		errors.Is(err, query.ErrSlotWithoutAddress):
		return errs.BadRequest(err)
	}

	return err
}
