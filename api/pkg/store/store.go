package store

import (
	"context"
	"errors"

	"github.com/feedwire/feedwire/api/pkg/types"
)

var ErrNotFound = errors.New("not found")

// MessageStore persists the feed in arrival order. Appends assign positions,
// updates rewrite an entry without moving it.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *types.Message) (*types.Message, error)
	UpdateMessage(ctx context.Context, id string, update func(*types.Message)) (*types.Message, error)
	GetMessage(ctx context.Context, id string) (*types.Message, error)
	ListMessages(ctx context.Context) ([]types.Message, error)
	CountMessages(ctx context.Context) (int, error)
	Close() error
}
