package public

import (
	"context"
	"net/http"

	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/node"
	"github.com/tcoin/blockchain/foundation/blockchain/utxo"
	"github.com/tcoin/blockchain/foundation/nameservice"
	"github.com/tcoin/blockchain/foundation/web"
)

// UTXO manages the endpoints only served by the utxo strategy.
type UTXO struct {
	Node *node.Server[utxo.Transaction, []utxo.Transaction]
	NS   *nameservice.NameService
}

type balance struct {
	PublicKey string         `json:"publicKey"`
	Name      string         `json:"name"`
	Balance   uint64         `json:"balance"`
	Unspent   []utxo.Unspent `json:"unspent"`
}

// Balance returns the committed balance of a public key along with the
// outputs it can spend.
func (h UTXO) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	publicKey := web.Param(r, "publickey")
	if pk, exists := h.NS.PublicKey(publicKey); exists {
		publicKey = pk
	}

	bal := balance{
		PublicKey: publicKey,
		Name:      h.NS.Lookup(publicKey),
	}

	h.Node.Blockchain().Query(func(m manager.Manager[utxo.Transaction, []utxo.Transaction]) {
		mgr := m.(*utxo.Manager)
		bal.Balance = mgr.Balance(publicKey)
		bal.Unspent = mgr.Unspent(publicKey)
	})

	return web.Respond(ctx, w, bal, http.StatusOK)
}
