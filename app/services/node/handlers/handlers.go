// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/tcoin/blockchain/app/services/node/handlers/debug/checkgrp"
	v1 "github.com/tcoin/blockchain/app/services/node/handlers/v1"
	"github.com/tcoin/blockchain/business/web/v1/mid"
	"github.com/tcoin/blockchain/foundation/blockchain/node"
	"github.com/tcoin/blockchain/foundation/events"
	"github.com/tcoin/blockchain/foundation/nameservice"
	"github.com/tcoin/blockchain/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig[TX any, D any] struct {
	Shutdown        chan os.Signal
	Log             *zap.SugaredLogger
	Node            *node.Server[TX, D]
	NS              *nameservice.NameService
	Evts            *events.Events
	MaxTxBytes      int64 // Zero applies the v1 default.
	MaxMessageBytes int64 // Zero applies the v1 default.
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux[TX any, D any](cfg MuxConfig[TX, D]) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors("*"),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests from wallets and viewers.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors("*"))

	// Load the v1 routes.
	v1.PublicRoutes(app, v1.Config[TX, D]{
		Log:        cfg.Log,
		Node:       cfg.Node,
		NS:         cfg.NS,
		Evts:       cfg.Evts,
		MaxTxBytes: cfg.MaxTxBytes,
	})

	return app
}

// PrivateMux constructs a http.Handler serving the peer protocol.
func PrivateMux[TX any, D any](cfg MuxConfig[TX, D]) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	// Load the v1 routes.
	v1.PrivateRoutes(app, v1.Config[TX, D]{
		Log:             cfg.Log,
		Node:            cfg.Node,
		MaxMessageBytes: cfg.MaxMessageBytes,
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
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(build string, log *zap.SugaredLogger) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}
