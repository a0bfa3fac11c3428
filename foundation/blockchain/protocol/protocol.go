// Package protocol defines the messages nodes exchange and the contract a
// transport must provide to deliver them.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tcoin/blockchain/foundation/blockchain/database"
)

// Set of message types understood by a node.
const (
	TypeVersion      = "version"
	TypeVersionAck   = "versionAck"
	TypeGetPeers     = "getPeers"
	TypePeers        = "peers"
	TypeGetBlocks    = "getBlocks"
	TypeBlocks       = "blocks"
	TypeTransactions = "transactions"
	TypeError        = "error"
)

// ErrUnknownType is returned when a message carries a type no node knows.
var ErrUnknownType = errors.New("unknown message type")

// Message is the tagged record sent between nodes. Only the fields that
// belong to the type are set.
type Message[TX any, D any] struct {
	Type         string              `json:"type"`
	Version      uint32              `json:"version,omitempty"`
	Peers        []string            `json:"peers,omitempty"`
	Blocks       []database.Block[D] `json:"blocks,omitempty"`
	Transactions []TX                `json:"transactions,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Validate checks the message carries a known type.
func (m Message[TX, D]) Validate() error {
	switch m.Type {
	case TypeVersion, TypeVersionAck, TypeGetPeers, TypePeers,
		TypeGetBlocks, TypeBlocks, TypeTransactions, TypeError:
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
}

// =============================================================================

// Version announces the protocol version spoken by the sender.
func Version[TX any, D any](version uint32) Message[TX, D] {
	return Message[TX, D]{Type: TypeVersion, Version: version}
}

// VersionAck accepts the version of the peer.
func VersionAck[TX any, D any]() Message[TX, D] {
	return Message[TX, D]{Type: TypeVersionAck}
}

// GetPeers requests the peers known to a node.
func GetPeers[TX any, D any]() Message[TX, D] {
	return Message[TX, D]{Type: TypeGetPeers}
}

// Peers lists peer addresses.
func Peers[TX any, D any](peers []string) Message[TX, D] {
	return Message[TX, D]{Type: TypePeers, Peers: peers}
}

// GetBlocks requests the chain adopted by a node.
func GetBlocks[TX any, D any]() Message[TX, D] {
	return Message[TX, D]{Type: TypeGetBlocks}
}

// Blocks delivers a full chain starting with genesis.
func Blocks[TX any, D any](blocks []database.Block[D]) Message[TX, D] {
	return Message[TX, D]{Type: TypeBlocks, Blocks: blocks}
}

// Transactions delivers transactions to add to the mempool.
func Transactions[TX any, D any](txs []TX) Message[TX, D] {
	return Message[TX, D]{Type: TypeTransactions, Transactions: txs}
}

// Error reports a failure to handle a message.
func Error[TX any, D any](err string) Message[TX, D] {
	return Message[TX, D]{Type: TypeError, Error: err}
}

// =============================================================================

// Client interface represents the behavior required to be implemented by any
// package delivering messages to peers. A nil reply with a nil error means
// the peer had nothing to say back.
type Client[TX any, D any] interface {
	SendMessage(ctx context.Context, peer string, msg Message[TX, D]) (*Message[TX, D], error)
	Broadcast(ctx context.Context, peers []string, msg Message[TX, D])
}

// Sender is the part of a client that delivers a single message.
type Sender[TX any, D any] interface {
	SendMessage(ctx context.Context, peer string, msg Message[TX, D]) (*Message[TX, D], error)
}

// Broadcast sends the message to every peer from its own goroutine and waits
// for all deliveries to finish. Replies are ignored and a failure for one
// peer doesn't affect the others. Failures are reported to the handler.
func Broadcast[TX any, D any](ctx context.Context, sender Sender[TX, D], peers []string, msg Message[TX, D], evHandler func(v string, args ...any)) {
	var wg sync.WaitGroup
	wg.Add(len(peers))

	for _, peer := range peers {
		go func(peer string) {
			defer wg.Done()

			if _, err := sender.SendMessage(ctx, peer, msg); err != nil {
				evHandler("protocol: Broadcast: peer[%s]: type[%s]: ERROR: %s", peer, msg.Type, err)
			}
		}(peer)
	}

	wg.Wait()
}
