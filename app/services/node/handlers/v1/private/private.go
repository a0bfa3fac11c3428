// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"net/http"

	v1 "github.com/tcoin/blockchain/business/web/v1"
	"github.com/tcoin/blockchain/foundation/blockchain/node"
	"github.com/tcoin/blockchain/foundation/blockchain/protocol"
	"github.com/tcoin/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers[TX any, D any] struct {
	Log  *zap.SugaredLogger
	Node *node.Server[TX, D]
}

// Message handles a protocol message from a peer. The reply, if any, is the
// response body.
func (h Handlers[TX, D]) Message(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var msg protocol.Message[TX, D]
	if err := web.Decode(r, &msg); err != nil {
		return v1.NewDecodeError(err)
	}

	h.Log.Infow("node message", "traceid", web.GetTraceID(ctx), "type", msg.Type, "remoteaddr", r.RemoteAddr)

	resp := h.Node.HandleMessage(ctx, msg)
	if resp == nil {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
