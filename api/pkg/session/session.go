package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/feedwire/feedwire/api/pkg/client"
	"github.com/feedwire/feedwire/api/pkg/feed"
	"github.com/feedwire/feedwire/api/pkg/stream"
	"github.com/feedwire/feedwire/api/pkg/types"
)

type Options struct {
	// Client is the snapshot/gateway HTTP client. Required.
	Client client.Client
	// URL is the backend base URL the live transport connects to. Used
	// when Subscriber is nil.
	URL string
	// Transport selects websocket or sse. Used when Subscriber is nil.
	Transport types.Transport
	// Subscriber overrides the live transport. Tests use this.
	Subscriber stream.Subscriber
	// OnChange is invoked after each live event has been applied, with the
	// outcome and the event itself. Runs on the apply goroutine.
	OnChange func(types.Mutation, types.Message)
	// OnStatus is invoked on every connection health transition.
	OnStatus func(types.Status)
}

// Session owns one reconciled view of the feed: it seeds the collection
// from the snapshot endpoint, then applies live events one at a time, in
// arrival order, on a single goroutine. Publishing and editing go out
// through the HTTP gateway and only take effect locally when their echo
// arrives on the stream.
type Session struct {
	opts       Options
	client     client.Client
	subscriber stream.Subscriber
	feed       *feed.Feed

	mu          sync.Mutex
	snapshotErr error

	doneCh chan struct{}
}

func New(opts Options) (*Session, error) {
	if opts.Client == nil {
		return nil, errors.New("client is required")
	}

	subscriber := opts.Subscriber
	if subscriber == nil {
		var err error
		subscriber, err = stream.New(opts.Transport, stream.Options{
			URL:      opts.URL,
			OnStatus: opts.OnStatus,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Session{
		opts:       opts,
		client:     opts.Client,
		subscriber: subscriber,
		feed:       feed.New(),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start fetches the one-time snapshot, connects the live transport and
// spawns the apply loop. A failed snapshot is not fatal: the session keeps
// going from an empty collection and the error is retained for inspection.
// A failed transport connect is returned to the caller.
func (s *Session) Start(ctx context.Context) error {
	snapshot, err := s.client.ListMessages(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("snapshot failed, starting from an empty collection")
		s.mu.Lock()
		s.snapshotErr = err
		s.mu.Unlock()
	} else {
		s.feed.Seed(snapshot)
	}

	if err := s.subscriber.Start(ctx); err != nil {
		return fmt.Errorf("failed to start live stream: %w", err)
	}

	go s.applyLoop()

	return nil
}

// applyLoop is the only caller of Apply, so events are reconciled strictly
// serialized in delivery order.
func (s *Session) applyLoop() {
	defer close(s.doneCh)

	for msg := range s.subscriber.Events() {
		mutation := s.feed.Apply(msg)

		log.Debug().
			Str("id", msg.ID).
			Str("mutation", string(mutation)).
			Msg("applied live event")

		if s.opts.OnChange != nil {
			s.opts.OnChange(mutation, msg)
		}
	}
}

// Send publishes a new message through the gateway. The result carries the
// assigned id, but the local collection is only updated when the stream
// echoes the message back.
func (s *Session) Send(ctx context.Context, author, text string) (*types.Message, error) {
	return s.client.Publish(ctx, author, text)
}

// Edit replaces the text of a message that is present in the local
// collection. There is no optimistic update, the echo carries the change.
func (s *Session) Edit(ctx context.Context, id, text string) (*types.Message, error) {
	if _, ok := s.feed.Get(id); !ok {
		return nil, fmt.Errorf("unknown message id %s", id)
	}
	return s.client.Edit(ctx, id, text)
}

// Messages returns the current reconciled collection in arrival order.
func (s *Session) Messages() []types.Message {
	return s.feed.Messages()
}

// Health is the live transport's connection status.
func (s *Session) Health() types.Status {
	return s.subscriber.Status()
}

func (s *Session) Feed() *feed.Feed {
	return s.feed
}

// SnapshotErr returns the retained snapshot failure, if any.
func (s *Session) SnapshotErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotErr
}

// Stop closes the live transport. The apply loop drains whatever was
// already delivered and exits; no in-flight apply is interrupted.
func (s *Session) Stop() error {
	return s.subscriber.Stop()
}

// Wait blocks until the apply loop has exited.
func (s *Session) Wait() {
	<-s.doneCh
}
