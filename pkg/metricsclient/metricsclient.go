// Package metricsclient defines the node metrics contract:
// get_node_metrics and wait_until_reachability_check_completes. Unlike
// rpcclient, this surface is not wired into the Lifecycle Controller's
// core operations, so it is exposed here for the CLI / status layer to
// use directly.
package metricsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client queries a running node's metrics endpoint.
type Client interface {
	GetNodeMetrics(ctx context.Context) (map[string]float64, error)
	WaitUntilReachabilityCheckCompletes(ctx context.Context, timeout time.Duration) error
}

// Factory builds a Client bound to a single node's metrics_port.
type Factory func(metricsAddr string) Client

type httpClient struct {
	addr string
	hc   *http.Client
}

// NewHTTPClient builds the default Factory product, scraping a plain
// JSON metrics document rather than the Prometheus exposition format —
// the node's actual metrics wire format is unspecified here.
func NewHTTPClient(metricsAddr string) Client {
	return &httpClient{addr: metricsAddr, hc: &http.Client{Timeout: 5 * time.Second}}
}

func (c *httpClient) GetNodeMetrics(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/metrics.json", c.addr), nil)
	if err != nil {
		return nil, fmt.Errorf("build metrics request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch node metrics: %w", err)
	}
	defer resp.Body.Close()

	var out map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode node metrics: %w", err)
	}
	return out, nil
}

func (c *httpClient) WaitUntilReachabilityCheckCompletes(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		metrics, err := c.GetNodeMetrics(ctx)
		if err == nil {
			if done, ok := metrics["reachability_check_complete"]; ok && done != 0 {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("reachability check did not complete within %s", timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
