package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/feedwire/feedwire/api/pkg/system"
	"github.com/feedwire/feedwire/api/pkg/types"
)

// WebsocketSubscriber consumes the backend's /ws endpoint. The socket is
// bidirectional on the wire but this client never writes: publishing goes
// through the HTTP gateway and comes back as a broadcast frame like any
// other message.
type WebsocketSubscriber struct {
	opts Options

	mu      sync.Mutex
	conn    *websocket.Conn
	status  types.Status
	stopped bool
	done    chan struct{}

	events chan types.Message
}

var _ Subscriber = &WebsocketSubscriber{}

func NewWebsocketSubscriber(opts Options) *WebsocketSubscriber {
	return &WebsocketSubscriber{
		opts:   opts,
		status: types.StatusDisconnected,
		done:   make(chan struct{}),
		events: make(chan types.Message, eventBufferSize),
	}
}

func (s *WebsocketSubscriber) Start(ctx context.Context) error {
	wsURL := system.WSURL(s.opts.URL, "/ws")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	log.Debug().Str("ws_url", wsURL).Msg("websocket connected")
	s.setStatus(types.StatusConnected)

	go s.readLoop()

	// Close the connection when the caller's context ends, which unblocks
	// the read loop.
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-s.done:
		}
	}()

	return nil
}

func (s *WebsocketSubscriber) readLoop() {
	defer func() {
		s.setStatus(types.StatusDisconnected)
		close(s.events)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.isStopped() {
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var msg types.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Str("raw", string(data)).Msg("dropping malformed event")
			continue
		}

		select {
		case s.events <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *WebsocketSubscriber) Events() <-chan types.Message {
	return s.events
}

func (s *WebsocketSubscriber) Status() types.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *WebsocketSubscriber) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	conn := s.conn
	close(s.done)
	s.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (s *WebsocketSubscriber) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *WebsocketSubscriber) setStatus(status types.Status) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed && s.opts.OnStatus != nil {
		s.opts.OnStatus(status)
	}
}
