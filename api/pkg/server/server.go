package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/feedwire/feedwire/api/pkg/config"
	"github.com/feedwire/feedwire/api/pkg/pubsub"
	"github.com/feedwire/feedwire/api/pkg/store"
	"github.com/feedwire/feedwire/api/pkg/system"
)

// FeedAPIServer is the backend every client reconciles against: it serves
// the snapshot, accepts publishes and edits, and fans each accepted message
// out to all live websocket and SSE connections through pubsub.
type FeedAPIServer struct {
	Cfg   *config.ServerConfig
	Store store.MessageStore

	pubsub pubsub.PubSub
	router *mux.Router
}

func NewServer(
	cfg *config.ServerConfig,
	store store.MessageStore,
	ps pubsub.PubSub,
) (*FeedAPIServer, error) {
	if cfg.WebServer.Host == "" {
		return nil, fmt.Errorf("server host is required")
	}

	if cfg.WebServer.Port == 0 {
		return nil, fmt.Errorf("server port is required")
	}

	return &FeedAPIServer{
		Cfg:    cfg,
		Store:  store,
		pubsub: ps,
	}, nil
}

func (apiServer *FeedAPIServer) ListenAndServe(ctx context.Context) error {
	apiServer.registerRoutes(ctx)

	srv := &http.Server{
		Addr: fmt.Sprintf("%s:%d", apiServer.Cfg.WebServer.Host, apiServer.Cfg.WebServer.Port),
		// WriteTimeout and ReadTimeout set to 0 (no timeout) because the
		// SSE stream and websocket upgrades stay open indefinitely.
		// Note: ReadHeaderTimeout is kept to prevent slowloris attacks
		WriteTimeout:      0,
		ReadTimeout:       0,
		ReadHeaderTimeout: time.Second * 60,
		IdleTimeout:       time.Minute * 60,
		Handler:           apiServer.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", srv.Addr).Msg("feed api server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (apiServer *FeedAPIServer) registerRoutes(ctx context.Context) *mux.Router {
	router := mux.NewRouter()

	router.Use(errorLoggingMiddleware)
	router.Use(apiServer.corsMiddleware)

	// OPTIONS is routed so preflight requests reach the cors middleware
	router.HandleFunc("/messages", system.DefaultWrapper(apiServer.getMessages)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/publish", system.Wrapper(apiServer.publish)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/edit/{id}", system.Wrapper(apiServer.edit)).Methods(http.MethodPut, http.MethodOptions)
	router.HandleFunc("/status", system.DefaultWrapper(apiServer.status)).Methods(http.MethodGet)

	router.HandleFunc("/events", func(res http.ResponseWriter, req *http.Request) {
		apiServer.events(ctx, res, req)
	}).Methods(http.MethodGet)

	apiServer.startFeedWebSocketServer(ctx, router, "/ws")

	apiServer.router = router
	return router
}
