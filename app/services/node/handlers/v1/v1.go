// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/tcoin/blockchain/app/services/node/handlers/v1/private"
	"github.com/tcoin/blockchain/app/services/node/handlers/v1/public"
	"github.com/tcoin/blockchain/business/web/v1/httpclient"
	"github.com/tcoin/blockchain/business/web/v1/mid"
	"github.com/tcoin/blockchain/foundation/blockchain/account"
	"github.com/tcoin/blockchain/foundation/blockchain/node"
	"github.com/tcoin/blockchain/foundation/blockchain/utxo"
	"github.com/tcoin/blockchain/foundation/events"
	"github.com/tcoin/blockchain/foundation/nameservice"
	"github.com/tcoin/blockchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Default limits on request bodies. Peer messages carry whole chains.
const (
	DefaultMaxTxBytes      = 1 << 20
	DefaultMaxMessageBytes = 64 << 20
)

// Config contains all the mandatory systems required by handlers.
type Config[TX any, D any] struct {
	Log             *zap.SugaredLogger
	Node            *node.Server[TX, D]
	NS              *nameservice.NameService
	Evts            *events.Events
	MaxTxBytes      int64
	MaxMessageBytes int64
}

// PublicRoutes binds all the version 1 public routes. Routes specific to a
// transaction strategy are bound when the node runs that strategy.
func PublicRoutes[TX any, D any](app *web.App, cfg Config[TX, D]) {
	pbl := public.Handlers[TX, D]{
		Log:  cfg.Log,
		Node: cfg.Node,
		Evts: cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/stats", pbl.Stats)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	maxTx := cfg.MaxTxBytes
	if maxTx <= 0 {
		maxTx = DefaultMaxTxBytes
	}
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction, mid.BodyLimit(maxTx))
	app.Handle(http.MethodPost, version, "/mining/start", pbl.StartMining)
	app.Handle(http.MethodPost, version, "/mining/stop", pbl.StopMining)

	switch srv := any(cfg.Node).(type) {
	case *node.Server[utxo.Transaction, []utxo.Transaction]:
		ux := public.UTXO{
			Node: srv,
			NS:   cfg.NS,
		}
		app.Handle(http.MethodGet, version, "/balance/:publickey", ux.Balance)

	case *node.Server[account.Transaction, account.Commit]:
		acct := public.Account{
			Node: srv,
		}
		app.Handle(http.MethodGet, version, "/contract/list", acct.Contracts)
		app.Handle(http.MethodGet, version, "/contract/:id", acct.Contract)
	}
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes[TX any, D any](app *web.App, cfg Config[TX, D]) {
	prv := private.Handlers[TX, D]{
		Log:  cfg.Log,
		Node: cfg.Node,
	}

	maxMsg := cfg.MaxMessageBytes
	if maxMsg <= 0 {
		maxMsg = DefaultMaxMessageBytes
	}
	app.Handle(http.MethodPost, "", httpclient.MessagePath, prv.Message, mid.BodyLimit(maxMsg))
}
