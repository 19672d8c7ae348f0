// Package mock provides an rpcclient.Client double that returns
// canned NodeInfo/NetworkInfo responses, or a queued error, without
// any network call — the Lifecycle Controller's tests drive the
// post-start reconciliation step against this instead of a real node.
package mock

import (
	"context"

	"github.com/marmos91/antnode-manager/pkg/rpcclient"
)

// Client is a canned rpcclient.Client.
type Client struct {
	NodeInfoResp    rpcclient.NodeInfo
	NetworkInfoResp rpcclient.NetworkInfo

	NodeInfoErr    error
	NetworkInfoErr error
}

// New builds a Client that returns zero-value responses until fields are set.
func New() *Client {
	return &Client{}
}

func (c *Client) NodeInfo(_ context.Context) (rpcclient.NodeInfo, error) {
	return c.NodeInfoResp, c.NodeInfoErr
}

func (c *Client) NetworkInfo(_ context.Context) (rpcclient.NetworkInfo, error) {
	return c.NetworkInfoResp, c.NetworkInfoErr
}

func (c *Client) RecordAddresses(_ context.Context, _ []string) error { return nil }
func (c *Client) NodeRestart(_ context.Context, _ uint64) error       { return nil }
func (c *Client) NodeStop(_ context.Context, _ uint64) error          { return nil }
func (c *Client) NodeUpdate(_ context.Context) error                  { return nil }
func (c *Client) UpdateLogLevel(_ context.Context, _ string) error    { return nil }
func (c *Client) WaitUntilNodeConnectsToNetwork(_ context.Context) error {
	return nil
}

// Factory returns an rpcclient.Factory that always hands back c,
// ignoring the requested address — tests want one canned client
// regardless of which entry's rpc_socket_addr is being dialed.
func Factory(c *Client) rpcclient.Factory {
	return func(string) rpcclient.Client { return c }
}
