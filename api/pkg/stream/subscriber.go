package stream

import (
	"context"
	"fmt"

	"github.com/feedwire/feedwire/api/pkg/types"
)

// Subscriber is a live event source. Both transports are consumed identically:
// Start connects, Events yields messages in exact arrival order until the
// connection ends, Stop closes the transport. There is no reconnect here -
// callers that want one layer it on top and start a fresh subscriber.
type Subscriber interface {
	Start(ctx context.Context) error
	Events() <-chan types.Message
	Status() types.Status
	Stop() error
}

type Options struct {
	// URL is the backend base URL, e.g. http://localhost:4877. The
	// subscriber derives its own endpoint from it.
	URL string
	// OnStatus is invoked on every connection health transition.
	OnStatus func(types.Status)
}

// eventBufferSize only smooths bursts, sends block when the buffer is full
// so no event is ever dropped or reordered.
const eventBufferSize = 64

func New(transport types.Transport, opts Options) (Subscriber, error) {
	switch transport {
	case types.TransportWebsocket:
		return NewWebsocketSubscriber(opts), nil
	case types.TransportSSE:
		return NewSSESubscriber(opts), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}
