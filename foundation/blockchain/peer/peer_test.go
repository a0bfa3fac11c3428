package peer_test

import (
	"testing"

	"github.com/tcoin/blockchain/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host3"}, {Host: "host1"}, {Host: "host2"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				if !ps.Add(peer) {
					t.Fatalf("Test %s:\tShould be able to add a new peer.", tst.name)
				}
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould not add a known peer twice.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			peers = ps.Copy("host2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			hosts := ps.Hosts()
			if hosts[0] != "host1" || hosts[2] != "host3" {
				t.Fatalf("Test %s:\tShould get back the hosts in order, got %v.", tst.name, hosts)
			}

			ps.Remove(peer.New("host1"))
			if ps.Contains(peer.New("host1")) || ps.Count() != 2 {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Match(t *testing.T) {
	type table struct {
		name  string
		self  string
		host  string
		match bool
	}

	tt := []table{
		{name: "same", self: "0.0.0.0:9080", host: "0.0.0.0:9080", match: true},
		{name: "localhost", self: "0.0.0.0:9080", host: "localhost:9080", match: true},
		{name: "loopback", self: "0.0.0.0:9080", host: "127.0.0.1:9080", match: true},
		{name: "ipv6", self: "[::]:9080", host: "[::1]:9080", match: true},
		{name: "empty", self: ":9080", host: "127.0.0.1:9080", match: true},
		{name: "case", self: "Node-A:9080", host: "node-a:9080", match: true},
		{name: "other port", self: "0.0.0.0:9080", host: "localhost:9180", match: false},
		{name: "remote", self: "0.0.0.0:9080", host: "10.0.0.5:9080", match: false},
		{name: "other host", self: "a:9080", host: "b:9080", match: false},
		{name: "no port", self: "host1", host: "host2", match: false},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			if got := peer.New(tst.self).Match(tst.host); got != tst.match {
				t.Fatalf("Test %s:\tShould match %s against %s as %v, got %v.", tst.name, tst.host, tst.self, tst.match, got)
			}
		}

		t.Run(tst.name, f)
	}
}
