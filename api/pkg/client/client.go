package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/feedwire/feedwire/api/pkg/config"
	"github.com/feedwire/feedwire/api/pkg/types"
)

type Client interface {
	ListMessages(ctx context.Context) ([]types.Message, error)
	Publish(ctx context.Context, author, text string) (*types.Message, error)
	Edit(ctx context.Context, id, text string) (*types.Message, error)
	Status(ctx context.Context) (*types.ServerStatus, error)
}

// FeedClient is the client for the feed api
type FeedClient struct {
	httpClient *http.Client
	url        string
}

const (
	DefaultURL = "http://localhost:4877"
)

func NewClientFromEnv() (*FeedClient, error) {
	cfg, err := config.LoadCliConfig()
	if err != nil {
		return nil, err
	}

	return NewClient(cfg.URL)
}

func NewClient(url string) (*FeedClient, error) {
	if url == "" {
		url = DefaultURL
	}

	return &FeedClient{
		httpClient: http.DefaultClient,
		url:        url,
	}, nil
}

// URL returns the base URL the client talks to, for callers that need to
// derive the stream endpoint from it.
func (c *FeedClient) URL() string {
	return c.url
}

func (c *FeedClient) makeRequest(ctx context.Context, method, path string, body io.Reader, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bts, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("status code %d", resp.StatusCode)
		}
		return fmt.Errorf("status code %d (%s)", resp.StatusCode, string(bts))
	}

	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}

	return nil
}
