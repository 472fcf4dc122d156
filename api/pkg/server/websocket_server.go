package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/feedwire/feedwire/api/pkg/pubsub"
	"github.com/feedwire/feedwire/api/pkg/system"
)

// pingInterval is how often we ping each websocket client to keep
// intermediaries from reaping the connection.
const pingInterval = 10 * time.Second

// startFeedWebSocketServer attaches the live message feed websocket endpoint
// to the router. Every message accepted by the publish and edit handlers is
// fanned out to all connected clients as a JSON text frame.
func (apiServer *FeedAPIServer) startFeedWebSocketServer(
	_ context.Context,
	r *mux.Router,
	path string,
) {
	var feedWebsocketUpgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	r.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := feedWebsocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Msgf("Error upgrading websocket: %s", err.Error())
			return
		}
		defer conn.Close()

		connID := system.GenerateUUID()

		// Context canceled when the client goes away, stops the ping loop
		// and tears down the subscription.
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Gorilla websocket connections allow only one concurrent writer,
		// the ping loop and the fan-out callback share this mutex.
		var wsMu sync.Mutex

		go func() {
			ticker := time.NewTicker(pingInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					wsMu.Lock()
					err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second))
					wsMu.Unlock()
					if err != nil {
						log.Debug().Str("conn_id", connID).Err(err).Msg("websocket ping failed, closing connection")
						return
					}
				}
			}
		}()

		sub, err := apiServer.pubsub.Subscribe(ctx, pubsub.FeedMessagesSubject, func(payload []byte) error {
			wsMu.Lock()
			defer wsMu.Unlock()
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Error().Str("conn_id", connID).Err(err).Msg("error writing message to websocket")
				return err
			}
			return nil
		})
		if err != nil {
			log.Error().Str("conn_id", connID).Err(err).Msg("error subscribing to feed messages")
			return
		}
		defer func() {
			if err := sub.Unsubscribe(); err != nil {
				log.Error().Str("conn_id", connID).Err(err).Msg("error unsubscribing from feed messages")
			}
		}()

		log.Trace().
			Str("action", "⚡ websocket connected").
			Str("conn_id", connID).
			Msg("feed websocket client connected")

		// The feed is broadcast-only, clients are not expected to send
		// anything. Reading in a loop is still required so the connection
		// processes control frames and we notice the client going away.
		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				log.Trace().Str("conn_id", connID).Err(err).Msg("feed websocket client disconnected")
				break
			}
			if messageType == websocket.CloseMessage {
				log.Trace().Str("conn_id", connID).Msg("feed websocket client sent close frame")
				break
			}
		}
	})
}
