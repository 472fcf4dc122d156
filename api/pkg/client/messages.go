package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/feedwire/feedwire/api/pkg/types"
)

// ListMessages fetches the one-time snapshot of the feed. There is no retry
// here on purpose: a failed snapshot means the caller starts from an empty
// collection and lets the live stream fill it in.
func (c *FeedClient) ListMessages(ctx context.Context) ([]types.Message, error) {
	var messages []types.Message
	err := c.makeRequest(ctx, http.MethodGet, "/messages", nil, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Publish submits a new message. The returned message carries the
// server-assigned id and timestamp, but callers must not append it to any
// local collection: the live stream echo is the authoritative path.
func (c *FeedClient) Publish(ctx context.Context, author, text string) (*types.Message, error) {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)
	if author == "" {
		return nil, errors.New("author is required")
	}
	if text == "" {
		return nil, errors.New("text is required")
	}

	bts, err := json.Marshal(&types.PublishRequest{
		Author: author,
		Text:   text,
	})
	if err != nil {
		return nil, err
	}

	var published types.Message
	err = c.makeRequest(ctx, http.MethodPost, "/publish", bytes.NewBuffer(bts), &published)
	if err != nil {
		return nil, err
	}
	return &published, nil
}

// Edit replaces the text of an existing message. Like Publish, the result
// must not be applied locally, the echo is.
func (c *FeedClient) Edit(ctx context.Context, id, text string) (*types.Message, error) {
	text = strings.TrimSpace(text)
	if id == "" {
		return nil, errors.New("id is required")
	}
	if text == "" {
		return nil, errors.New("text is required")
	}

	bts, err := json.Marshal(&types.EditRequest{
		Text: text,
	})
	if err != nil {
		return nil, err
	}

	var edited types.Message
	err = c.makeRequest(ctx, http.MethodPut, "/edit/"+id, bytes.NewBuffer(bts), &edited)
	if err != nil {
		return nil, err
	}
	return &edited, nil
}

func (c *FeedClient) Status(ctx context.Context) (*types.ServerStatus, error) {
	var status types.ServerStatus
	err := c.makeRequest(ctx, http.MethodGet, "/status", nil, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}
