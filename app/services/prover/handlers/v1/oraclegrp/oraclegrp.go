// Package oraclegrp maintains the group of handlers for submitting to the
// gas price oracle and streaming the progress events.
package oraclegrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/blockwitness/business/core/oracle"
	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/business/web/errs"
	"github.com/ardanlabs/blockwitness/foundation/events"
	"github.com/ardanlabs/blockwitness/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultWaitTimeout = 2 * time.Minute

// ErrDisabled is returned when the service runs without an oracle contract.
var ErrDisabled = errors.New("oracle submission is not configured")

// Handlers manages the set of oracle endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	Client      *query.Client
	Oracle      *oracle.Oracle
	Evts        *events.Events
	WS          websocket.Upgrader
	WaitTimeout time.Duration
}

type submission struct {
	Block       uint64 `json:"block"`
	Tx          string `json:"tx"`
	Status      uint64 `json:"status"`
	MinedIn     uint64 `json:"minedIn"`
	GasUsed     uint64 `json:"gasUsed"`
	ClaimedHash string `json:"claimedHash"`
}

// ProvideGasPrice proves the block, submits the witness and header to the
// contract and waits for the transaction to be mined.
func (h Handlers) ProvideGasPrice(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.Oracle == nil {
		return errs.NewTrusted(ErrDisabled, http.StatusServiceUnavailable)
	}

	s := web.Param(r, "number")
	number, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errs.BadRequest(fmt.Errorf("invalid block number %q", s))
	}

	traceID := web.GetTraceID(ctx)

	witness, err := h.Client.Block.HashWitness(ctx, number)
	if err != nil {
		h.Evts.Sendf(traceID, events.KindError, number, "witness: %s", err)
		return trusted(err)
	}
	h.Evts.Sendf(traceID, events.KindWitness, number, "witness for %s", witness.ClaimedBlockHash.Hex())

	rlpHeader, err := h.Client.Block.RLPHeader(ctx, number)
	if err != nil {
		h.Evts.Sendf(traceID, events.KindError, number, "header: %s", err)
		return trusted(err)
	}
	h.Evts.Sendf(traceID, events.KindHeader, number, "header of %d bytes", len(rlpHeader))

	tx, err := h.Oracle.ProvideGasPrice(ctx, witness, rlpHeader)
	if err != nil {
		h.Evts.Sendf(traceID, events.KindError, number, "submit: %s", err)
		return err
	}
	h.Evts.Sendf(traceID, events.KindSubmitted, number, "tx %s", tx.Hash().Hex())

	timeout := h.WaitTimeout
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, err := h.Oracle.Wait(ctx, tx)
	if err != nil && !errors.Is(err, oracle.ErrReverted) {
		h.Evts.Sendf(traceID, events.KindError, number, "wait %s: %s", tx.Hash().Hex(), err)
		return errs.NewTrusted(err, http.StatusGatewayTimeout)
	}
	h.Evts.Sendf(traceID, events.KindMined, number, "tx %s mined with status %d", tx.Hash().Hex(), receipt.Status)

	resp := submission{
		Block:       number,
		Tx:          tx.Hash().Hex(),
		Status:      receipt.Status,
		MinedIn:     receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		ClaimedHash: witness.ClaimedBlockHash.Hex(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, e.JSON()); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

func trusted(err error) error {
	switch {
	case errors.Is(err, query.ErrBlockNotFound):
		return errs.NotFound(err)
	case errors.Is(err, query.ErrBlockNotFinal), errors.Is(err, query.ErrBlockRange):
		return errs.BadRequest(err)
	}
	return err
}
