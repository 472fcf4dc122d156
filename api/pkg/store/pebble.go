package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog/log"

	"github.com/feedwire/feedwire/api/pkg/types"
)

const (
	messageKeyPrefix = "msg:"
	idIndexPrefix    = "id:"
)

// PebbleStore keeps one key per message under a zero-padded sequence number,
// so pebble's key order is the feed's arrival order. A second namespace maps
// message IDs back to their sequence key, which lets edits rewrite the
// original entry in place.
type PebbleStore struct {
	db  *pebble.DB
	seq uint64
}

var _ MessageStore = &PebbleStore{}

func NewPebbleStore(dataDir string) (*PebbleStore, error) {
	db, err := pebble.Open(dataDir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store at %s: %w", dataDir, err)
	}

	s := &PebbleStore{db: db}

	if err := s.recoverSequence(); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info().Str("data_dir", dataDir).Uint64("seq", s.seq).Msg("message store opened")

	return s, nil
}

// recoverSequence scans to the last message key so appends after a restart
// continue the arrival order instead of resetting it.
func (s *PebbleStore) recoverSequence() error {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	prefix := []byte(messageKeyPrefix)
	var lastKey string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		lastKey = string(iter.Key())
	}
	if lastKey == "" {
		return nil
	}

	seq, err := strconv.ParseUint(strings.TrimPrefix(lastKey, messageKeyPrefix), 10, 64)
	if err != nil {
		return fmt.Errorf("corrupt message key %q: %w", lastKey, err)
	}
	s.seq = seq
	return nil
}

func messageKey(seq uint64) string {
	// zero padded so lexicographic order equals numeric order
	return fmt.Sprintf("%s%020d", messageKeyPrefix, seq)
}

func idIndexKey(id string) string {
	return idIndexPrefix + id
}

func (s *PebbleStore) AppendMessage(_ context.Context, msg *types.Message) (*types.Message, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	seq := atomic.AddUint64(&s.seq, 1)
	key := messageKey(seq)

	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to write message: %w", err)
	}

	// Index by message ID so edits can find the sequence key later.
	if msg.ID != "" {
		if err := s.db.Set([]byte(idIndexKey(msg.ID)), []byte(key), pebble.Sync); err != nil {
			return nil, fmt.Errorf("failed to write message index: %w", err)
		}
	}

	return msg, nil
}

func (s *PebbleStore) UpdateMessage(_ context.Context, id string, update func(*types.Message)) (*types.Message, error) {
	key, err := s.lookupMessageKey(id)
	if err != nil {
		return nil, err
	}

	data, closer, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", id, err)
	}
	var msg types.Message
	unmarshalErr := json.Unmarshal(data, &msg)
	if closer != nil {
		_ = closer.Close()
	}
	if unmarshalErr != nil {
		return nil, fmt.Errorf("corrupt message %s: %w", id, unmarshalErr)
	}

	update(&msg)
	msg.ID = id

	updated, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	// Rewrite the same sequence key so the entry keeps its position.
	if err := s.db.Set([]byte(key), updated, pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to write message: %w", err)
	}

	return &msg, nil
}

func (s *PebbleStore) GetMessage(_ context.Context, id string) (*types.Message, error) {
	key, err := s.lookupMessageKey(id)
	if err != nil {
		return nil, err
	}

	data, closer, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", id, err)
	}
	var msg types.Message
	unmarshalErr := json.Unmarshal(data, &msg)
	if closer != nil {
		_ = closer.Close()
	}
	if unmarshalErr != nil {
		return nil, fmt.Errorf("corrupt message %s: %w", id, unmarshalErr)
	}

	return &msg, nil
}

func (s *PebbleStore) lookupMessageKey(id string) (string, error) {
	v, closer, err := s.db.Get([]byte(idIndexKey(id)))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to look up message %s: %w", id, err)
	}
	key := string(v)
	if closer != nil {
		_ = closer.Close()
	}
	return key, nil
}

func (s *PebbleStore) ListMessages(_ context.Context) ([]types.Message, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	prefix := []byte(messageKeyPrefix)
	var out []types.Message
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		v := append([]byte(nil), iter.Value()...)
		var msg types.Message
		if err := json.Unmarshal(v, &msg); err != nil {
			return nil, fmt.Errorf("corrupt message at %s: %w", iter.Key(), err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *PebbleStore) CountMessages(_ context.Context) (int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	prefix := []byte(messageKeyPrefix)
	count := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		count++
	}
	return count, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}
