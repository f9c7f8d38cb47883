// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/ardanlabs/blockwitness/app/services/prover/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/blockwitness/app/services/prover/handlers/v1"
	"github.com/ardanlabs/blockwitness/app/services/prover/handlers/viewergrp"
	"github.com/ardanlabs/blockwitness/business/core/oracle"
	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/business/web/mid"
	"github.com/ardanlabs/blockwitness/foundation/events"
	"github.com/ardanlabs/blockwitness/foundation/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown    chan os.Signal
	Log         *zap.SugaredLogger
	Client      *query.Client
	Oracle      *oracle.Oracle
	Evts        *events.Events
	CorsOrigin  string
	WaitTimeout time.Duration
}

// APIMux constructs a http.Handler with all application routes defined.
func APIMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Metrics(),
		mid.Errors(cfg.Log),
		mid.Cors(cfg.CorsOrigin),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors(cfg.CorsOrigin))

	// Page that follows the events socket.
	app.Handle(http.MethodGet, "", "/viewer", viewergrp.Index)

	// Load the v1 routes.
	v1.Routes(app, v1.Config{
		Log:         cfg.Log,
		Client:      cfg.Client,
		Oracle:      cfg.Oracle,
		Evts:        cfg.Evts,
		WaitTimeout: cfg.WaitTimeout,
	})

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. The prometheus collectors are
// served from /metrics.
func DebugMux(build string, log *zap.SugaredLogger, client *query.Client) http.Handler {
	mux := DebugStandardLibraryMux()

	cgh := checkgrp.Handlers{
		Build:  build,
		Log:    log,
		Client: client,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
