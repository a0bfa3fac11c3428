// Package node implements the peer protocol. A node answers the messages of
// its peers, gossips new chains and transactions, and drives mining.
package node

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tcoin/blockchain/foundation/blockchain/database"
	"github.com/tcoin/blockchain/foundation/blockchain/hashcash"
	"github.com/tcoin/blockchain/foundation/blockchain/peer"
	"github.com/tcoin/blockchain/foundation/blockchain/protocol"
	"github.com/tcoin/blockchain/foundation/blockchain/state"
)

// defaultSeenCacheSize is the number of transaction ids remembered to avoid
// validating and gossiping the same transaction again.
const defaultSeenCacheSize = 10_000

// EventHandler defines a function that is called when events
// occur in the processing of messages.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config[TX any, D any] struct {
	Host            string // Address peers use to reach this node.
	ProtocolVersion uint32
	HashRate        float64 // Target hashes per second, 0 is unlimited.
	SeenCacheSize   int
	Blockchain      *state.Blockchain[TX, D]
	Client          protocol.Client[TX, D]
	KnownPeers      *peer.PeerSet
	EvHandler       EventHandler
}

// Server is the node-local state of the peer protocol.
type Server[TX any, D any] struct {
	host       string
	version    uint32
	hashRate   float64
	bc         *state.Blockchain[TX, D]
	client     protocol.Client[TX, D]
	peers      *peer.PeerSet
	seen       *lru.Cache
	shouldMine atomic.Bool
	wg         sync.WaitGroup
	evHandler  EventHandler

	Worker Worker
}

// New constructs a node server. The Worker is not set here. The call to
// worker.Run will assign itself to the server.
func New[TX any, D any](cfg Config[TX, D]) (*Server[TX, D], error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	size := cfg.SeenCacheSize
	if size <= 0 {
		size = defaultSeenCacheSize
	}

	seen, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("seen cache: %w", err)
	}

	peers := cfg.KnownPeers
	if peers == nil {
		peers = peer.NewPeerSet()
	}

	hashRate := cfg.HashRate
	if hashRate <= 0 {
		hashRate = hashcash.Unlimited
	}

	s := Server[TX, D]{
		host:      cfg.Host,
		version:   cfg.ProtocolVersion,
		hashRate:  hashRate,
		bc:        cfg.Blockchain,
		client:    cfg.Client,
		peers:     peers,
		seen:      seen,
		evHandler: ev,
		Worker:    noWorker{},
	}

	return &s, nil
}

// Shutdown stops mining and waits for outstanding broadcasts.
func (s *Server[TX, D]) Shutdown() {
	s.evHandler("node: shutdown: started")
	defer s.evHandler("node: shutdown: completed")

	s.shouldMine.Store(false)
	s.Worker.Shutdown()
	s.wg.Wait()
}

// Host returns the address of this node.
func (s *Server[TX, D]) Host() string {
	return s.host
}

// Blockchain returns the consensus engine of the node.
func (s *Server[TX, D]) Blockchain() *state.Blockchain[TX, D] {
	return s.bc
}

// Peers returns the hosts of the known peers.
func (s *Server[TX, D]) Peers() []string {
	return s.peers.Hosts()
}

// =============================================================================

// StartMining turns mining on.
func (s *Server[TX, D]) StartMining() {
	s.shouldMine.Store(true)
	s.Worker.SignalStartMining()
	s.evHandler("viewer: mining: started")
}

// StopMining turns mining off and cancels the search in flight.
func (s *Server[TX, D]) StopMining() {
	s.shouldMine.Store(false)
	s.Worker.SignalCancelMining()
	s.evHandler("viewer: mining: stopped")
}

// IsMining reports if the node should be mining.
func (s *Server[TX, D]) IsMining() bool {
	return s.shouldMine.Load()
}

// MineBlock searches for the next block on top of the current head.
func (s *Server[TX, D]) MineBlock(ctx context.Context) (database.Block[D], error) {
	return s.bc.MineBlock(ctx, s.hashRate)
}

// ProposeBlock extends the adopted chain with a block mined by this node and
// shares the new chain with the peers.
func (s *Server[TX, D]) ProposeBlock(block database.Block[D]) (bool, error) {
	merged, err := s.bc.MergeBlocks(s.bc.Candidate(block))
	if !merged {
		return false, err
	}

	s.evHandler("viewer: block: mined: blk[%.16s]", block.ID)
	s.broadcast(protocol.Blocks[TX, D](s.bc.Blocks()))

	return true, nil
}

// =============================================================================

// broadcast sends the message to every known peer without waiting.
func (s *Server[TX, D]) broadcast(msg protocol.Message[TX, D]) {
	s.broadcastTo(s.peers.Hosts(), msg)
}

func (s *Server[TX, D]) broadcastTo(peers []string, msg protocol.Message[TX, D]) {
	if len(peers) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.evHandler("node: broadcast: type[%s]: peers[%d]", msg.Type, len(peers))
		s.client.Broadcast(context.Background(), peers, msg)
	}()
}

// =============================================================================

// noWorker is used until a worker registers itself.
type noWorker struct{}

func (noWorker) Shutdown()           {}
func (noWorker) SignalStartMining()  {}
func (noWorker) SignalCancelMining() {}
