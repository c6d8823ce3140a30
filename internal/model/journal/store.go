package journal

import (
	"context"
	"errors"

	"github.com/harulog/backend/internal/analysis/emotion"
)

// ErrNotFound is returned when an operation references an unknown entry id.
var ErrNotFound = errors.New("journal entry not found")

// NewEntry carries the caller-supplied fields of a fresh entry.
type NewEntry struct {
	Title    string
	Emotion  emotion.Label
	Messages []Message
}

// AppendOptions tunes Append. An empty UpdateEmotion keeps the stored label.
type AppendOptions struct {
	UpdateEmotion emotion.Label
}

// MetaPatch lists the mutable entry fields; nil fields are left untouched.
type MetaPatch struct {
	Title   *string
	Emotion *emotion.Label
}

// Store exposes journal persistence to the session and insight services.
// Every mutating call moves the touched entry to the front of List.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Create(ctx context.Context, entry NewEntry) (string, error)
	Get(ctx context.Context, id string) (Entry, error)
	Append(ctx context.Context, id string, messages []Message, opts AppendOptions) error
	UpdateMeta(ctx context.Context, id string, patch MetaPatch) error
	Clear(ctx context.Context) error
}
