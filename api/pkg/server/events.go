package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/feedwire/feedwire/api/pkg/pubsub"
)

// events streams the live message feed as server-sent events. Every message
// accepted by the publish and edit handlers is written as one data frame.
//
// The serve context is passed in alongside the request context because
// http.Server.Shutdown waits for active handlers but does not cancel their
// request contexts, so without it open streams would hold shutdown forever.
func (apiServer *FeedAPIServer) events(ctx context.Context, res http.ResponseWriter, req *http.Request) {
	res.Header().Set("Content-Type", "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	// Flush headers so the client sees the stream open immediately
	if flusher, ok := res.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := apiServer.pubsub.Subscribe(req.Context(), pubsub.FeedMessagesSubject, func(payload []byte) error {
		return writeChunk(res, payload)
	})
	if err != nil {
		log.Error().Err(err).Msg("error subscribing to feed messages")
		return
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("error unsubscribing from feed messages")
		}
	}()

	log.Trace().Str("remote_addr", req.RemoteAddr).Msg("feed event stream client connected")

	select {
	case <-req.Context().Done():
		log.Trace().Str("remote_addr", req.RemoteAddr).Msg("feed event stream client disconnected")
	case <-ctx.Done():
		log.Trace().Str("remote_addr", req.RemoteAddr).Msg("feed event stream closed, server shutting down")
	}
}
