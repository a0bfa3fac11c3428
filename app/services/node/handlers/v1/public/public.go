// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tcoin/blockchain/business/sys/validate"
	v1 "github.com/tcoin/blockchain/business/web/v1"
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/node"
	"github.com/tcoin/blockchain/foundation/events"
	"github.com/tcoin/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints shared by every strategy.
type Handlers[TX any, D any] struct {
	Log  *zap.SugaredLogger
	Node *node.Server[TX, D]
	WS   websocket.Upgrader
	Evts *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers[TX, D]) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
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
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a signed transaction to the mempool and gossips it.
func (h Handlers[TX, D]) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx TX
	if err := web.Decode(r, &tx); err != nil {
		return v1.NewDecodeError(err)
	}

	if err := validate.Check(tx); err != nil {
		return err
	}

	id := h.Node.Blockchain().TransactionID(tx)
	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "tx", id)

	if accepted := h.Node.AddTransactions([]TX{tx}); len(accepted) == 0 {
		return v1.NewRequestError(errors.New("transaction rejected"), http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}{
		Status: "transaction added to mempool",
		ID:     id,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns the adopted chain starting with genesis.
func (h Handlers[TX, D]) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Node.Blockchain().Blocks(), http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers[TX, D]) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pending D
	h.Node.Blockchain().Query(func(m manager.Manager[TX, D]) {
		pending = m.Pending()
	})

	return web.Respond(ctx, w, pending, http.StatusOK)
}

// Stats returns a summary of the node.
func (h Handlers[TX, D]) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Node.Stats(), http.StatusOK)
}

// StartMining turns mining on.
func (h Handlers[TX, D]) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Node.StartMining()
	return web.Respond(ctx, w, status{Status: "mining started"}, http.StatusOK)
}

// StopMining turns mining off.
func (h Handlers[TX, D]) StopMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.Node.StopMining()
	return web.Respond(ctx, w, status{Status: "mining stopped"}, http.StatusOK)
}

type status struct {
	Status string `json:"status"`
}
