// Package httpclient delivers protocol messages to peers over HTTP. Each
// message is posted to the private API of the peer which answers with the
// reply or with no content.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tcoin/blockchain/foundation/blockchain/protocol"
)

// MessagePath is the private route serving protocol messages.
const MessagePath = "/v1/node/message"

// Client implements protocol.Client over HTTP.
type Client[TX any, D any] struct {
	http      *http.Client
	evHandler func(v string, args ...any)
}

// New constructs a client. Every request is bounded by the timeout.
func New[TX any, D any](timeout time.Duration, evHandler func(v string, args ...any)) *Client[TX, D] {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Client[TX, D]{
		http:      &http.Client{Timeout: timeout},
		evHandler: ev,
	}
}

// SendMessage posts the message to the peer and returns its reply. A nil
// reply means the peer had nothing to say back.
func (c *Client[TX, D]) SendMessage(ctx context.Context, peer string, msg protocol.Message[TX, D]) (*protocol.Message[TX, D], error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("http://%s%s", peer, MessagePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil

	case http.StatusOK:
		var reply protocol.Message[TX, D]
		if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
			return nil, fmt.Errorf("decode reply: %w", err)
		}
		return &reply, nil
	}

	msgBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, fmt.Errorf("peer %s: status %d: %s", peer, resp.StatusCode, bytes.TrimSpace(msgBody))
}

// Broadcast sends the message to every peer and waits for the deliveries.
func (c *Client[TX, D]) Broadcast(ctx context.Context, peers []string, msg protocol.Message[TX, D]) {
	protocol.Broadcast[TX, D](ctx, c, peers, msg, c.evHandler)
}
