// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"
	"time"

	"github.com/ardanlabs/blockwitness/app/services/prover/handlers/v1/blockgrp"
	"github.com/ardanlabs/blockwitness/app/services/prover/handlers/v1/oraclegrp"
	"github.com/ardanlabs/blockwitness/business/core/oracle"
	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/foundation/events"
	"github.com/ardanlabs/blockwitness/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	Client      *query.Client
	Oracle      *oracle.Oracle
	Evts        *events.Events
	WaitTimeout time.Duration
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	blk := blockgrp.Handlers{
		Log:    cfg.Log,
		Client: cfg.Client,
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/blocks/:number/witness", blk.Witness)
	app.Handle(http.MethodGet, version, "/blocks/:number/header", blk.Header)
	app.Handle(http.MethodGet, version, "/blocks/:number/batch", blk.Batch)
	app.Handle(http.MethodPost, version, "/query", blk.Query)

	orc := oraclegrp.Handlers{
		Log:         cfg.Log,
		Client:      cfg.Client,
		Oracle:      cfg.Oracle,
		Evts:        cfg.Evts,
		WS:          websocket.Upgrader{},
		WaitTimeout: cfg.WaitTimeout,
	}

	app.Handle(http.MethodGet, version, "/events", orc.Events)
	app.Handle(http.MethodPost, version, "/gasprice/:number", orc.ProvideGasPrice)
}
