package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/feedwire/feedwire/api/pkg/system"
)

// WaitReady blocks until the backend answers its status endpoint, retrying
// with backoff. Used by CLI commands started alongside the server.
func (c *FeedClient) WaitReady(ctx context.Context) error {
	retryClient := system.NewRetryClient(10)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, system.URL(c.url, "/status"), nil)
	if err != nil {
		return err
	}

	resp, err := retryClient.Do(req)
	if err != nil {
		return fmt.Errorf("server at %s is not ready: %w", c.url, err)
	}
	defer resp.Body.Close()

	return nil
}
