package types

// Transport selects which live delivery channel a session consumes.
type Transport string

const (
	TransportWebsocket Transport = "websocket"
	TransportSSE       Transport = "sse"
)

// Status is the connection health of a live transport. It starts
// disconnected, becomes connected when the transport opens, and returns to
// disconnected on close or error. Transitions are driven only by transport
// lifecycle signals.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnected    Status = "connected"
)

// Mutation describes what applying one live event did to the collection.
type Mutation string

const (
	// MutationAppended - the event became a new entry at the end.
	MutationAppended Mutation = "appended"
	// MutationUpdated - the event replaced an existing entry in place.
	MutationUpdated Mutation = "updated"
	// MutationDiscarded - the event was a known duplicate and was dropped.
	MutationDiscarded Mutation = "discarded"
)
