package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedwire/feedwire/api/pkg/types"
)

func TestListMessages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/messages", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]types.Message{
			{ID: "msg_1", Author: "Al", Text: "hi", Timestamp: 100},
			{ID: "msg_2", Author: "Bo", Text: "yo", Timestamp: 105},
		})
	}))
	defer ts.Close()

	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	messages, err := client.ListMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "msg_1", messages[0].ID)
	assert.Equal(t, "msg_2", messages[1].ID)
}

func TestListMessagesServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	_, err = client.ListMessages(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestPublish(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/publish", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req types.PublishRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Al", req.Author)
		require.Equal(t, "hi", req.Text)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.Message{
			ID:        "msg_1",
			Author:    req.Author,
			Text:      req.Text,
			Timestamp: 100,
		})
	}))
	defer ts.Close()

	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	published, err := client.Publish(context.Background(), "Al", "hi")
	require.NoError(t, err)
	assert.Equal(t, "msg_1", published.ID)
	assert.Equal(t, int64(100), published.Timestamp)
}

func TestPublishValidation(t *testing.T) {
	requested := false
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		requested = true
	}))
	defer ts.Close()

	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), "  ", "hi")
	require.Error(t, err)

	_, err = client.Publish(context.Background(), "Al", "   ")
	require.Error(t, err)

	assert.False(t, requested, "validation failures must not reach the server")
}

func TestEdit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/edit/msg_1", r.URL.Path)

		var req types.EditRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "hi!", req.Text)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.Message{
			ID:        "msg_1",
			Author:    "Al",
			Text:      req.Text,
			Timestamp: 160,
		})
	}))
	defer ts.Close()

	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	edited, err := client.Edit(context.Background(), "msg_1", "hi!")
	require.NoError(t, err)
	assert.Equal(t, "hi!", edited.Text)
}

func TestEditUnknownMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "message not found", http.StatusNotFound)
	}))
	defer ts.Close()

	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	_, err = client.Edit(context.Background(), "msg_unknown", "hi!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/status", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.ServerStatus{Version: "1.2.3", Messages: 7})
	}))
	defer ts.Close()

	client, err := NewClient(ts.URL)
	require.NoError(t, err)

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, 7, status.Messages)
}
