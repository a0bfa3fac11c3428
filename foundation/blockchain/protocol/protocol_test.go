package protocol_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/tcoin/blockchain/foundation/blockchain/protocol"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type message = protocol.Message[string, []string]

func TestValidate(t *testing.T) {
	type table struct {
		name string
		msg  message
		err  error
	}

	tt := []table{
		{name: "version", msg: protocol.Version[string, []string](1)},
		{name: "versionAck", msg: protocol.VersionAck[string, []string]()},
		{name: "getPeers", msg: protocol.GetPeers[string, []string]()},
		{name: "peers", msg: protocol.Peers[string, []string]([]string{"a:9080"})},
		{name: "getBlocks", msg: protocol.GetBlocks[string, []string]()},
		{name: "blocks", msg: protocol.Blocks[string, []string](nil)},
		{name: "transactions", msg: protocol.Transactions[string, []string]([]string{"tx"})},
		{name: "error", msg: protocol.Error[string, []string]("boom")},
		{name: "unknown", msg: message{Type: "bogus"}, err: protocol.ErrUnknownType},
		{name: "empty", msg: message{}, err: protocol.ErrUnknownType},
	}

	t.Log("Given the need to validate message types.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s message.", testID, tst.name)
			{
				f := func(t *testing.T) {
					err := tst.msg.Validate()
					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould get the expected error: got %v, exp %v", failed, testID, err, tst.err)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected error.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestWireFormat(t *testing.T) {
	t.Log("Given the need to exchange messages as JSON.")
	{
		t.Logf("\tTest 0:\tWhen encoding a message.")
		{
			data, err := json.Marshal(protocol.Version[string, []string](1))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to marshal: %s", failed, err)
			}

			if string(data) != `{"type":"version","version":1}` {
				t.Fatalf("\t%s\tTest 0:\tShould only carry the fields of the type: %s", failed, data)
			}
			t.Logf("\t%s\tTest 0:\tShould only carry the fields of the type.", success)
		}
	}
}

// recorder records the peers it was asked to deliver to.
type recorder struct {
	mu    sync.Mutex
	peers []string
}

func (r *recorder) SendMessage(ctx context.Context, peer string, msg message) (*message, error) {
	if strings.HasPrefix(peer, "down") {
		return nil, errors.New("unreachable")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers = append(r.peers, peer)

	return nil, nil
}

func TestBroadcast(t *testing.T) {
	t.Log("Given the need to deliver a message to many peers.")
	{
		t.Logf("\tTest 0:\tWhen a peer is unreachable.")
		{
			var rec recorder
			var reported int

			ev := func(v string, args ...any) { reported++ }
			protocol.Broadcast[string, []string](context.Background(), &rec, []string{"a", "down", "b"}, protocol.GetPeers[string, []string](), ev)

			if len(rec.peers) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould still deliver to the other peers: %v", failed, rec.peers)
			}
			t.Logf("\t%s\tTest 0:\tShould still deliver to the other peers.", success)

			if reported != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould report the failure: %d", failed, reported)
			}
			t.Logf("\t%s\tTest 0:\tShould report the failure.", success)
		}
	}
}
