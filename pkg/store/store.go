package store

import (
	"context"
	"errors"

	"lovelink/pkg/relationship"
)

// ErrNotFound is returned by Fetch when the remote has no record for the profile
var ErrNotFound = errors.New("relationship not found")

// Store is the remote copy of relationship profiles
type Store interface {
	Fetch(ctx context.Context, id string) (relationship.Profile, error)
	// Update upserts the progression fields of p
	Update(ctx context.Context, p relationship.Profile) error
}

// Watcher is implemented by stores that can push remote changes. The channel
// is closed when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, id string) (<-chan relationship.Profile, error)
}
