package feed

import (
	"sync"

	"github.com/feedwire/feedwire/api/pkg/types"
)

// Feed is the authoritative ordered message collection for one session and
// the only thing allowed to mutate it. It is fed from two overlapping
// sources - a one-time snapshot and a live event stream that may redeliver
// snapshot messages and delivers creates and edits through the same channel -
// and keeps the collection duplicate-free and order-stable throughout.
//
// Identity is the message ID: at most one entry exists per present ID, and
// entries without an ID are never merged or deduplicated. Order is arrival
// order - snapshot entries first, then live entries as delivered - and an
// edit replaces an entry in place without moving it.
//
// All methods are safe for concurrent use. In practice a single session
// goroutine calls Apply while other goroutines read.
type Feed struct {
	mu      sync.RWMutex
	entries []types.Message
	index   map[string]int      // present ID -> position in entries
	seen    map[string]struct{} // identity tracker: every ID ever observed
}

func New() *Feed {
	return &Feed{
		index: map[string]int{},
		seen:  map[string]struct{}{},
	}
}

// Seed initialises the collection from a snapshot: entries are appended in
// the order the backend returned them and every present ID is recorded in
// the identity tracker. Called once at session start, before any live event
// is applied.
func (f *Feed) Seed(msgs []types.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range msgs {
		f.applyLocked(msg)
	}
}

// Track records IDs as already observed without materialising an entry for
// them. A later event carrying a tracked-but-unmaterialised ID is discarded
// as a duplicate. This is the suppression path used when a transport's
// tracker is seeded independently of the collection; with the usual
// Seed-then-Apply flow it is never hit.
func (f *Feed) Track(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			f.seen[id] = struct{}{}
		}
	}
}

// Apply merges one live event into the collection and reports what happened.
// Events must be applied in delivery order; each call runs to completion
// before the next. Apply never fails and always leaves the collection valid:
//
//  1. no ID            -> append, never tracked
//  2. tracked, not materialised -> discard (duplicate suppression)
//  3. materialised     -> replace that entry's fields in place
//  4. otherwise        -> append and track (create)
//
// Because both transports re-broadcast the full message for creates and
// edits alike, create-vs-edit is decided here by materialisation, not by
// event shape - which also makes Apply idempotent under redelivery.
func (f *Feed) Apply(msg types.Message) types.Mutation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applyLocked(msg)
}

func (f *Feed) applyLocked(msg types.Message) types.Mutation {
	if msg.ID == "" {
		f.entries = append(f.entries, msg)
		return types.MutationAppended
	}

	_, tracked := f.seen[msg.ID]
	pos, materialised := f.index[msg.ID]

	if tracked && !materialised {
		return types.MutationDiscarded
	}

	if materialised {
		f.entries[pos] = msg
		return types.MutationUpdated
	}

	f.entries = append(f.entries, msg)
	f.index[msg.ID] = len(f.entries) - 1
	f.seen[msg.ID] = struct{}{}
	return types.MutationAppended
}

// Messages returns a copy of the collection in arrival order.
func (f *Feed) Messages() []types.Message {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]types.Message, len(f.entries))
	copy(out, f.entries)
	return out
}

// Get returns the materialised entry for an ID, if any.
func (f *Feed) Get(id string) (types.Message, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	pos, ok := f.index[id]
	if !ok {
		return types.Message{}, false
	}
	return f.entries[pos], true
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
