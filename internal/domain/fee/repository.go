package fee

import "context"

type Repository interface {
	// Get returns ErrNotFound before EnsureDefaults has run.
	Get(ctx context.Context) (*Settings, error)
	GetForUpdate(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
	// EnsureDefaults inserts defaults unless a row already exists.
	EnsureDefaults(ctx context.Context, defaults *Settings) (*Settings, error)
}
