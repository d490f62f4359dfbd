package settingsmock

import (
	"context"

	"nftlend-backend/internal/domain/fee"
)

var _ fee.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies fee.Repository.
type Repo struct {
	GetFn            func(ctx context.Context) (*fee.Settings, error)
	GetForUpdateFn   func(ctx context.Context) (*fee.Settings, error)
	SaveFn           func(ctx context.Context, s *fee.Settings) error
	EnsureDefaultsFn func(ctx context.Context, defaults *fee.Settings) (*fee.Settings, error)
}

func (m *Repo) Get(ctx context.Context) (*fee.Settings, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx)
	}
	return nil, fee.ErrNotFound
}

func (m *Repo) GetForUpdate(ctx context.Context) (*fee.Settings, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx)
	}
	return nil, fee.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, s *fee.Settings) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, s)
	}
	return nil
}

func (m *Repo) EnsureDefaults(ctx context.Context, defaults *fee.Settings) (*fee.Settings, error) {
	if m.EnsureDefaultsFn != nil {
		return m.EnsureDefaultsFn(ctx, defaults)
	}
	return defaults, nil
}
