package public

import (
	"context"
	"errors"
	"net/http"

	v1 "github.com/tcoin/blockchain/business/web/v1"
	"github.com/tcoin/blockchain/foundation/blockchain/account"
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/node"
	"github.com/tcoin/blockchain/foundation/web"
)

// Account manages the endpoints only served by the account strategy.
type Account struct {
	Node *node.Server[account.Transaction, account.Commit]
}

// Contract returns a committed contract and its storage.
func (h Account) Contract(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	var contract account.Contract
	var exists bool
	h.Node.Blockchain().Query(func(m manager.Manager[account.Transaction, account.Commit]) {
		contract, exists = m.(*account.Manager).Contract(id)
	})

	if !exists {
		return v1.NewRequestError(errors.New("contract not found"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, contract, http.StatusOK)
}

// Contracts returns every committed contract.
func (h Account) Contracts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var contracts []account.Contract
	h.Node.Blockchain().Query(func(m manager.Manager[account.Transaction, account.Commit]) {
		contracts = m.(*account.Manager).Contracts()
	})

	return web.Respond(ctx, w, contracts, http.StatusOK)
}
