// Package boards keeps the in-memory set of known boards and applies board
// list merges to it.
package boards

import (
	"context"
	"errors"
	"fmt"

	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/model"
)

var (
	ErrNotInitialized     = errors.New("board store is not initialized")
	ErrAlreadyInitialized = errors.New("board store is already initialized")
	ErrMergeFailed        = errors.New("board merge failed")
)

// Store is what the synchronization pipeline merges fetched boards into.
type Store interface {
	// AwaitUntilInitialized blocks until the store has finished loading, or
	// until ctx is done.
	AwaitUntilInitialized(ctx context.Context) error

	// CreateOrUpdateBoards upserts the batch atomically. It reports whether
	// the stored state changed.
	CreateOrUpdateBoards(ctx context.Context, boards []model.ChanBoard) (bool, error)

	// CreateBoardIfAbsent inserts board unless one with its descriptor
	// exists, and returns the stored board either way.
	CreateBoardIfAbsent(ctx context.Context, board model.ChanBoard) (model.ChanBoard, bool, error)

	ByBoardDescriptor(bd *descriptor.BoardDescriptor) (model.ChanBoard, bool)
}

// Loader supplies previously persisted boards during Initialize.
type Loader interface {
	LoadBoards(ctx context.Context, reg *descriptor.Registry) ([]model.ChanBoard, error)
}

// Persister durably records boards before a merge is published.
type Persister interface {
	SaveBoards(ctx context.Context, boards []model.ChanBoard) error
}

// MergeError reports a batch that could not be written. It matches
// ErrMergeFailed and the underlying cause with errors.Is.
type MergeError struct {
	Site   string
	Boards int
	Err    error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merging %d boards for site %q: %v", e.Boards, e.Site, e.Err)
}

func (e *MergeError) Unwrap() []error {
	return []error{ErrMergeFailed, e.Err}
}
