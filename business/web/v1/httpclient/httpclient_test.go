package httpclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tcoin/blockchain/business/web/v1/httpclient"
	"github.com/tcoin/blockchain/foundation/blockchain/protocol"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type message = protocol.Message[string, []string]

func TestSendMessage(t *testing.T) {
	var received atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != httpclient.MessagePath {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var msg message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received.Add(1)

		switch msg.Type {
		case protocol.TypeVersion:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(protocol.VersionAck[string, []string]())
		case protocol.TypeError:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	client := httpclient.New[string, []string](5*time.Second, func(v string, args ...any) { t.Logf("\t\t"+v, args...) })

	t.Log("Given the need to deliver protocol messages over HTTP.")
	{
		t.Logf("\tTest 0:\tWhen sending messages to a peer.")
		{
			resp, err := client.SendMessage(context.Background(), host, protocol.Version[string, []string](1))
			if err != nil || resp == nil || resp.Type != protocol.TypeVersionAck {
				t.Fatalf("\t%s\tTest 0:\tShould receive the reply: %+v, %v", failed, resp, err)
			}
			t.Logf("\t%s\tTest 0:\tShould receive the reply.", success)

			resp, err = client.SendMessage(context.Background(), host, protocol.Transactions[string, []string]([]string{"tx"}))
			if err != nil || resp != nil {
				t.Fatalf("\t%s\tTest 0:\tShould receive no reply for no content: %+v, %v", failed, resp, err)
			}
			t.Logf("\t%s\tTest 0:\tShould receive no reply for no content.", success)

			if _, err := client.SendMessage(context.Background(), host, protocol.Error[string, []string]("boom")); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould fail on a server error.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould fail on a server error.", success)
		}

		t.Logf("\tTest 1:\tWhen broadcasting to peers.")
		{
			before := received.Load()
			client.Broadcast(context.Background(), []string{host, host, "127.0.0.1:1"}, protocol.GetPeers[string, []string]())

			if got := received.Load() - before; got != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould deliver to every reachable peer: got %d", failed, got)
			}
			t.Logf("\t%s\tTest 1:\tShould deliver to every reachable peer.", success)
		}
	}
}
