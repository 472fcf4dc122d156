package types

// Message is the single entity carried by every part of the system: the
// snapshot endpoint returns an ordered list of them, both live transports
// deliver them one at a time, and the publish/edit gateway submits them.
//
// The JSON field names are the wire contract shared with the backend:
// {id?, author, text, timestamp?}.
type Message struct {
	// ID is assigned by the backend and is the sole basis for message
	// identity. Entries without an ID can never be correlated with a
	// later edit or duplicate, so they always append.
	ID        string `json:"id,omitempty"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp,omitempty"` // seconds since epoch, 0 when absent
}

// SameIdentity reports whether two messages refer to the same logical
// message. Only present, equal IDs match; absent IDs never match anything,
// including each other.
func (m Message) SameIdentity(other Message) bool {
	return m.ID != "" && m.ID == other.ID
}

// PublishRequest is the body of POST /publish.
type PublishRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// EditRequest is the body of PUT /edit/{id}.
type EditRequest struct {
	Text string `json:"text"`
}

// ServerStatus is the payload of GET /status.
type ServerStatus struct {
	Version  string `json:"version"`
	Messages int    `json:"messages"`
}
