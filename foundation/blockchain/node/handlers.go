package node

import (
	"context"

	"github.com/tcoin/blockchain/foundation/blockchain/peer"
	"github.com/tcoin/blockchain/foundation/blockchain/protocol"
)

// HandleMessage processes a message from a peer and returns the reply. A nil
// reply means there is nothing to send back.
func (s *Server[TX, D]) HandleMessage(ctx context.Context, msg protocol.Message[TX, D]) *protocol.Message[TX, D] {
	if err := msg.Validate(); err != nil {
		s.evHandler("node: HandleMessage: %s", err)
		return reply(protocol.Error[TX, D](err.Error()))
	}

	s.evHandler("node: HandleMessage: type[%s]", msg.Type)

	switch msg.Type {
	case protocol.TypeVersion:
		if msg.Version != s.version {
			s.evHandler("node: HandleMessage: version[%d]: unsupported, speaking %d", msg.Version, s.version)
			return nil
		}
		return reply(protocol.VersionAck[TX, D]())

	case protocol.TypeGetPeers:
		return reply(protocol.Peers[TX, D](s.peers.Hosts()))

	case protocol.TypePeers:
		for _, host := range msg.Peers {
			s.handshake(ctx, host)
		}
		return nil

	case protocol.TypeGetBlocks:
		return reply(protocol.Blocks[TX, D](s.bc.Blocks()))

	case protocol.TypeBlocks:
		s.handleBlocks(msg)
		return nil

	case protocol.TypeTransactions:
		s.AddTransactions(msg.Transactions)
		return nil

	case protocol.TypeError:
		s.evHandler("node: HandleMessage: peer reported: ERROR: %s", msg.Error)
		return nil
	}

	// Types that are only ever expected as replies.
	return nil
}

// Connect performs the handshake with the host and catches up with it by
// requesting its peers and its chain.
func (s *Server[TX, D]) Connect(ctx context.Context, host string) bool {
	s.evHandler("node: Connect: host[%s]: started", host)

	if !s.handshake(ctx, host) && !s.peers.Contains(peer.New(host)) {
		s.evHandler("node: Connect: host[%s]: handshake failed", host)
		return false
	}

	// Announcing ourselves lets the host handshake back so gossip flows
	// both ways.
	msgs := []protocol.Message[TX, D]{
		protocol.Peers[TX, D]([]string{s.host}),
		protocol.GetPeers[TX, D](),
		protocol.GetBlocks[TX, D](),
	}

	for _, msg := range msgs {
		resp, err := s.client.SendMessage(ctx, host, msg)
		if err != nil {
			s.evHandler("node: Connect: host[%s]: type[%s]: ERROR: %s", host, msg.Type, err)
			continue
		}
		if resp != nil {
			s.HandleMessage(ctx, *resp)
		}
	}

	s.evHandler("node: Connect: host[%s]: completed", host)

	return true
}

// AddTransactions offers transactions to the blockchain and gossips the ones
// that were accepted. Transactions seen before are skipped.
func (s *Server[TX, D]) AddTransactions(txs []TX) []TX {
	accepted := []TX{}

	for _, tx := range txs {
		id := s.bc.TransactionID(tx)
		if s.seen.Contains(id) {
			continue
		}

		if !s.bc.AddTransaction(tx) {
			s.evHandler("node: AddTransactions: tx[%.16s]: rejected", id)
			continue
		}

		s.seen.Add(id, struct{}{})
		accepted = append(accepted, tx)
		s.evHandler("viewer: tx: accepted: tx[%.16s]", id)
	}

	if len(accepted) > 0 {
		s.broadcast(protocol.Transactions[TX, D](accepted))
	}

	return accepted
}

// Sync refreshes the view of the network. Every known peer is asked for its
// peers and its chain. Peers that can't be reached are forgotten.
func (s *Server[TX, D]) Sync(ctx context.Context) {
	s.evHandler("node: Sync: started")
	defer s.evHandler("node: Sync: completed")

	for _, host := range s.peers.Hosts() {
		for _, msg := range []protocol.Message[TX, D]{protocol.GetPeers[TX, D](), protocol.GetBlocks[TX, D]()} {
			resp, err := s.client.SendMessage(ctx, host, msg)
			if err != nil {
				s.evHandler("node: Sync: host[%s]: ERROR: %s", host, err)
				s.peers.Remove(peer.New(host))
				s.evHandler("viewer: peer: removed: host[%s]", host)
				break
			}
			if resp != nil {
				s.HandleMessage(ctx, *resp)
			}
		}
	}
}

// =============================================================================

// handshake sends our version to a new host and adds it as a peer once it
// acknowledges. The new peer is announced to the peers we already know.
func (s *Server[TX, D]) handshake(ctx context.Context, host string) bool {
	p := peer.New(host)
	if host == "" || p.Match(s.host) || s.peers.Contains(p) {
		return false
	}

	resp, err := s.client.SendMessage(ctx, host, protocol.Version[TX, D](s.version))
	if err != nil {
		s.evHandler("node: handshake: host[%s]: ERROR: %s", host, err)
		return false
	}

	if resp == nil || resp.Type != protocol.TypeVersionAck {
		s.evHandler("node: handshake: host[%s]: version not acknowledged", host)
		return false
	}

	others := s.peers.Hosts()
	if !s.peers.Add(p) {
		return false
	}

	s.evHandler("viewer: peer: added: host[%s]", host)
	s.broadcastTo(others, protocol.Peers[TX, D]([]string{host}))

	return true
}

// handleBlocks considers adopting the chain of a peer. A new chain cancels
// any search in flight so mining restarts on the new head.
func (s *Server[TX, D]) handleBlocks(msg protocol.Message[TX, D]) {
	merged, err := s.bc.MergeBlocks(msg.Blocks)
	if !merged {
		s.evHandler("node: handleBlocks: blocks[%d]: not merged: %s", len(msg.Blocks), err)
		return
	}

	if s.IsMining() {
		s.Worker.SignalCancelMining()
		s.Worker.SignalStartMining()
	}

	s.broadcast(protocol.Blocks[TX, D](s.bc.Blocks()))
}

func reply[TX any, D any](msg protocol.Message[TX, D]) *protocol.Message[TX, D] {
	return &msg
}
