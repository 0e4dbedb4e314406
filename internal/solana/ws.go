package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// LogsFilter selects which program's logs a subscription watches, per
// Solana's logsSubscribe "mentions" filter.
type LogsFilter struct {
	MentionsProgramID string
}

// LogNotification is one logsNotification payload: a signature, its slot,
// and whether the transaction errored on-chain.
type LogNotification struct {
	Signature string
	Slot      int64
	Err       bool
}

type wsEnvelope struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type logsNotificationParams struct {
	Result struct {
		Context struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string          `json:"signature"`
			Err       json.RawMessage `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

// WSClient is a persistent logsSubscribe feed for one program ID, with
// fixed-interval reconnect-on-error — mirroring the solana-token-lab
// reference's WSClientImpl subscription loop.
type WSClient struct {
	endpoint string
	filter   LogsFilter
	log      *logrus.Entry
	reconnectDelay time.Duration
}

// NewWSClient builds a client for one program's log feed.
func NewWSClient(endpoint string, filter LogsFilter, log *logrus.Entry) *WSClient {
	return &WSClient{
		endpoint:       endpoint,
		filter:         filter,
		log:            log,
		reconnectDelay: 5 * time.Second,
	}
}

// Run subscribes and streams notifications onto out until ctx is cancelled,
// reconnecting on any read or dial error after reconnectDelay. The spec's Log
// Ingestor runs one of these per configured program ID (spec §4.1).
func (c *WSClient) Run(ctx context.Context, out chan<- LogNotification) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.runOnce(ctx, out); err != nil {
			c.log.WithError(err).WithField("program", c.filter.MentionsProgramID).
				Warn("solana: log subscription dropped, reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *WSClient) runOnce(ctx context.Context, out chan<- LogNotification) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sub := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "logsSubscribe",
		"params": []any{
			map[string]any{"mentions": []string{c.filter.MentionsProgramID}},
			map[string]any{"commitment": "finalized"},
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		conn.Close()
		close(done)
	}()

	for {
		var env wsEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			select {
			case <-done:
				return nil
			default:
				return fmt.Errorf("read: %w", err)
			}
		}
		if env.Method != "logsNotification" {
			continue // subscription ack or unrelated method
		}
		var params logsNotificationParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			c.log.WithError(err).Warn("solana: malformed logsNotification, skipping")
			continue
		}
		notif := LogNotification{
			Signature: params.Result.Value.Signature,
			Slot:      params.Result.Context.Slot,
			Err:       len(params.Result.Value.Err) > 0 && string(params.Result.Value.Err) != "null",
		}
		select {
		case out <- notif:
		case <-ctx.Done():
			return nil
		}
	}
}
