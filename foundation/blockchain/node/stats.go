package node

import (
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
)

// Stats represents a summary of the node state.
type Stats struct {
	Host       string   `json:"host"`
	Height     int      `json:"height"`
	Head       string   `json:"head"`
	Work       uint64   `json:"work"`
	Difficulty uint32   `json:"difficulty"`
	Pending    int      `json:"pending"`
	Mining     bool     `json:"mining"`
	Peers      []string `json:"peers"`
}

// Stats returns a summary of the node state.
func (s *Server[TX, D]) Stats() Stats {
	blocks := s.bc.Blocks()

	var pending int
	s.bc.Query(func(m manager.Manager[TX, D]) {
		pending = len(m.TransactionIDs(m.Pending()))
	})

	return Stats{
		Host:       s.host,
		Height:     len(blocks) - 1,
		Head:       blocks[len(blocks)-1].ID,
		Work:       s.bc.Work(),
		Difficulty: s.bc.Difficulty(),
		Pending:    pending,
		Mining:     s.IsMining(),
		Peers:      s.peers.Hosts(),
	}
}
