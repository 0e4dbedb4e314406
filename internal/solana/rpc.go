// Package solana wraps the node RPC surface this pipeline needs: a
// logsSubscribe websocket feed (internal/ingest's input) and a getTransaction
// HTTP call (internal/resolve's input). Adapted from internal/bitcoin/client.go's
// "typed client wrapping a node RPC" shape; since no rpcclient/btcjson
// equivalent exists for Solana in this pack, the wire format follows the
// solana-token-lab reference files' hand-rolled JSON-RPC pattern instead.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps Solana's JSON-RPC-over-HTTP surface.
type HTTPClient struct {
	endpoint string
	hc       *http.Client
}

// NewHTTPClient builds a client with the 30s request timeout spec §5 calls for.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("solana rpc error %d: %s", e.Code, e.Message) }

// GetTransaction fetches one confirmed transaction by signature, requesting
// jsonParsed encoding with maxSupportedTransactionVersion 0 so both legacy
// and versioned transactions resolve.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getTransaction",
		Params: []any{
			signature,
			map[string]any{
				"encoding":                       "jsonParsed",
				"maxSupportedTransactionVersion": 0,
				"commitment":                     "confirmed",
			},
		},
	}
	return c.call(ctx, req)
}

func (c *HTTPClient) call(ctx context.Context, req rpcRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("solana: rpc call %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solana: rpc call %s: HTTP %d: %s", req.Method, resp.StatusCode, string(raw))
	}
	var parsed rpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("solana: decoding rpc response: %w", err)
	}
	if parsed.Error != nil {
		return nil, parsed.Error
	}
	return parsed.Result, nil
}

// RetryGetTransaction retries GetTransaction with exponential backoff,
// tolerating the node's common "not yet indexed" nil-result window —
// adapted from the solana-token-lab reference's retryGetTransaction.
func (c *HTTPClient) RetryGetTransaction(ctx context.Context, signature string, attempts int) (json.RawMessage, error) {
	backoff := 500 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		result, err := c.GetTransaction(ctx, signature)
		if err == nil && len(result) > 0 && string(result) != "null" {
			return result, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("solana: getTransaction %s not yet available", signature)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}
