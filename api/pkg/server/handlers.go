package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/feedwire/feedwire/api/pkg/pubsub"
	"github.com/feedwire/feedwire/api/pkg/store"
	"github.com/feedwire/feedwire/api/pkg/system"
	"github.com/feedwire/feedwire/api/pkg/types"
	"github.com/feedwire/feedwire/api/pkg/version"
)

// getMessages serves the one-time snapshot: every message in arrival order.
func (apiServer *FeedAPIServer) getMessages(_ http.ResponseWriter, req *http.Request) ([]types.Message, error) {
	messages, err := apiServer.Store.ListMessages(req.Context())
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []types.Message{}
	}
	return messages, nil
}

func (apiServer *FeedAPIServer) publish(_ http.ResponseWriter, req *http.Request) (*types.Message, *system.HTTPError) {
	var publishReq types.PublishRequest
	if err := json.NewDecoder(req.Body).Decode(&publishReq); err != nil {
		return nil, system.NewHTTPError400(fmt.Sprintf("invalid request body: %s", err))
	}

	if strings.TrimSpace(publishReq.Author) == "" {
		return nil, system.NewHTTPError400("author is required")
	}
	if strings.TrimSpace(publishReq.Text) == "" {
		return nil, system.NewHTTPError400("text is required")
	}

	msg := &types.Message{
		ID:        system.GenerateMessageID(),
		Author:    publishReq.Author,
		Text:      publishReq.Text,
		Timestamp: time.Now().Unix(),
	}

	if _, err := apiServer.Store.AppendMessage(req.Context(), msg); err != nil {
		return nil, system.NewHTTPError500(err.Error())
	}

	apiServer.broadcast(req.Context(), msg)

	log.Info().
		Str("id", msg.ID).
		Str("author", msg.Author).
		Msg("message published")

	return msg, nil
}

func (apiServer *FeedAPIServer) edit(_ http.ResponseWriter, req *http.Request) (*types.Message, *system.HTTPError) {
	id := mux.Vars(req)["id"]

	var editReq types.EditRequest
	if err := json.NewDecoder(req.Body).Decode(&editReq); err != nil {
		return nil, system.NewHTTPError400(fmt.Sprintf("invalid request body: %s", err))
	}

	if strings.TrimSpace(editReq.Text) == "" {
		return nil, system.NewHTTPError400("text is required")
	}

	// The entry keeps its position in the feed, only text and timestamp
	// change.
	updated, err := apiServer.Store.UpdateMessage(req.Context(), id, func(m *types.Message) {
		m.Text = editReq.Text
		m.Timestamp = time.Now().Unix()
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, system.NewHTTPError404(fmt.Sprintf("message %s not found", id))
		}
		return nil, system.NewHTTPError500(err.Error())
	}

	apiServer.broadcast(req.Context(), updated)

	log.Info().
		Str("id", updated.ID).
		Msg("message edited")

	return updated, nil
}

func (apiServer *FeedAPIServer) status(_ http.ResponseWriter, req *http.Request) (*types.ServerStatus, error) {
	count, err := apiServer.Store.CountMessages(req.Context())
	if err != nil {
		return nil, err
	}

	return &types.ServerStatus{
		Version:  version.GetVersion(),
		Messages: count,
	}, nil
}

// broadcast publishes the full message JSON to the feed subject. Every live
// connection gets it from its own subscription, so delivery cannot fail a
// request that already persisted.
func (apiServer *FeedAPIServer) broadcast(ctx context.Context, msg *types.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("id", msg.ID).Msg("failed to marshal broadcast")
		return
	}

	if err := apiServer.pubsub.Publish(ctx, pubsub.FeedMessagesSubject, payload); err != nil {
		log.Error().Err(err).Str("id", msg.ID).Msg("failed to broadcast message")
	}
}
