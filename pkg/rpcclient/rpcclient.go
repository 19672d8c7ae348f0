// Package rpcclient defines the contract the Lifecycle Controller uses
// to query a running node. The wire protocol itself is explicitly
// out of scope for the fleet manager core — only the shape of the two
// calls the controller actually issues (node_info, network_info) and
// the signatures of the methods it never calls are fixed here.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NodeInfo is the response shape of node_info.
type NodeInfo struct {
	PID           uint32 `json:"pid"`
	PeerID        string `json:"peer_id"`
	DataPath      string `json:"data_path"`
	LogPath       string `json:"log_path"`
	Version       string `json:"version"`
	UptimeSeconds uint64 `json:"uptime"`
	WalletBalance string `json:"wallet_balance"`
}

// NetworkInfo is the response shape of network_info.
type NetworkInfo struct {
	ConnectedPeers []string `json:"connected_peers"`
	Listeners      []string `json:"listeners"`
}

// Client is every call the node's RPC surface exposes. The Lifecycle
// Controller only ever calls NodeInfo and NetworkInfo (post-start
// reconciliation); the rest are part of the contract but unused
// by the core, left here so other layers (CLI, future commands) have
// somewhere to call them without redefining the interface.
type Client interface {
	NodeInfo(ctx context.Context) (NodeInfo, error)
	NetworkInfo(ctx context.Context) (NetworkInfo, error)
	RecordAddresses(ctx context.Context, addrs []string) error
	NodeRestart(ctx context.Context, delayMillis uint64) error
	NodeStop(ctx context.Context, delayMillis uint64) error
	NodeUpdate(ctx context.Context) error
	UpdateLogLevel(ctx context.Context, level string) error
	WaitUntilNodeConnectsToNetwork(ctx context.Context) error
}

// Factory builds a Client bound to a single node's rpc_socket_addr. The
// Lifecycle Controller takes one of these rather than a single Client
// because every NodeEntry has its own RPC endpoint.
type Factory func(rpcSocketAddr string) Client

// httpClient is a minimal JSON-over-HTTP implementation. The wire
// format is not specified anywhere in scope for this system, so this
// exists only to give Factory a concrete, working default; any real
// deployment is expected to supply its own Factory matching the node
// binary's actual RPC protocol.
type httpClient struct {
	addr string
	hc   *http.Client
}

// NewHTTPClient builds the default Factory product: a JSON-RPC-style
// client posting to http://<rpcSocketAddr>/<method>.
func NewHTTPClient(rpcSocketAddr string) Client {
	return &httpClient{
		addr: rpcSocketAddr,
		hc:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *httpClient) call(ctx context.Context, method string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("http://%s/%s", c.addr, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", method, httpResp.StatusCode)
	}

	if resp == nil {
		return nil
	}
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func (c *httpClient) NodeInfo(ctx context.Context) (NodeInfo, error) {
	var out NodeInfo
	err := c.call(ctx, "node_info", struct{}{}, &out)
	return out, err
}

func (c *httpClient) NetworkInfo(ctx context.Context) (NetworkInfo, error) {
	var out NetworkInfo
	err := c.call(ctx, "network_info", struct{}{}, &out)
	return out, err
}

func (c *httpClient) RecordAddresses(ctx context.Context, addrs []string) error {
	return c.call(ctx, "record_addresses", struct {
		Addrs []string `json:"addrs"`
	}{addrs}, nil)
}

func (c *httpClient) NodeRestart(ctx context.Context, delayMillis uint64) error {
	return c.call(ctx, "node_restart", struct {
		DelayMillis uint64 `json:"delay_millis"`
	}{delayMillis}, nil)
}

func (c *httpClient) NodeStop(ctx context.Context, delayMillis uint64) error {
	return c.call(ctx, "node_stop", struct {
		DelayMillis uint64 `json:"delay_millis"`
	}{delayMillis}, nil)
}

func (c *httpClient) NodeUpdate(ctx context.Context) error {
	return c.call(ctx, "node_update", struct{}{}, nil)
}

func (c *httpClient) UpdateLogLevel(ctx context.Context, level string) error {
	return c.call(ctx, "update_log_level", struct {
		Level string `json:"level"`
	}{level}, nil)
}

func (c *httpClient) WaitUntilNodeConnectsToNetwork(ctx context.Context) error {
	return c.call(ctx, "wait_until_node_connects_to_network", struct{}{}, nil)
}
