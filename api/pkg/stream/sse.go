package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/feedwire/feedwire/api/pkg/system"
	"github.com/feedwire/feedwire/api/pkg/types"
)

// SSESubscriber consumes the backend's /events endpoint. The backend emits
// bare `data: <json>` frames, so every complete frame decodes to one message.
type SSESubscriber struct {
	opts Options

	mu      sync.Mutex
	body    io.ReadCloser
	status  types.Status
	stopped bool
	done    chan struct{}

	events chan types.Message
}

var _ Subscriber = &SSESubscriber{}

func NewSSESubscriber(opts Options) *SSESubscriber {
	return &SSESubscriber{
		opts:   opts,
		status: types.StatusDisconnected,
		done:   make(chan struct{}),
		events: make(chan types.Message, eventBufferSize),
	}
}

func (s *SSESubscriber) Start(ctx context.Context) error {
	url := system.URL(s.opts.URL, "/events")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream stays open until the context ends or
	// Stop closes the body.
	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return fmt.Errorf("event stream returned %d: %s", resp.StatusCode, string(body))
	}

	s.mu.Lock()
	s.body = resp.Body
	s.mu.Unlock()

	log.Debug().Str("url", url).Msg("event stream connected")
	s.setStatus(types.StatusConnected)

	go s.readLoop()

	return nil
}

func (s *SSESubscriber) readLoop() {
	defer func() {
		s.setStatus(types.StatusDisconnected)
		close(s.events)
	}()

	reader := bufio.NewReader(s.body)
	var dataLines []string

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF && !s.isStopped() {
				log.Warn().Err(err).Msg("event stream read error")
			}
			return
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		// A blank line terminates the frame.
		if line == "" {
			if len(dataLines) == 0 {
				continue
			}
			payload := strings.Join(dataLines, "\n")
			dataLines = nil

			var msg types.Message
			if err := json.Unmarshal([]byte(payload), &msg); err != nil {
				log.Warn().Err(err).Str("raw", payload).Msg("dropping malformed event")
				continue
			}

			select {
			case s.events <- msg:
			case <-s.done:
				return
			}
			continue
		}

		// Comment lines keep the connection alive, nothing to do.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		// event:/id:/retry: fields are ignored, the backend only emits
		// default message events.
	}
}

func (s *SSESubscriber) Events() <-chan types.Message {
	return s.events
}

func (s *SSESubscriber) Status() types.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *SSESubscriber) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	body := s.body
	close(s.done)
	s.mu.Unlock()

	if body != nil {
		return body.Close()
	}
	return nil
}

func (s *SSESubscriber) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *SSESubscriber) setStatus(status types.Status) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed && s.opts.OnStatus != nil {
		s.opts.OnStatus(status)
	}
}
