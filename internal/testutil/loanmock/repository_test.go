package loanmock

import (
	"context"
	"errors"
	"testing"

	domain "nftlend-backend/internal/domain/loan"
)

func TestRepo_Create(t *testing.T) {
	ctx := context.Background()
	l := &domain.Loan{DurationSeconds: 60}

	called := false
	wantErr := errors.New("boom")
	m := &Repo{
		CreateFn: func(gotCtx context.Context, got *domain.Loan) error {
			called = true
			if gotCtx != ctx {
				t.Fatalf("Create ctx mismatch")
			}
			if got != l {
				t.Fatalf("Create arg mismatch")
			}
			return wantErr
		},
	}
	if err := m.Create(ctx, l); !errors.Is(err, wantErr) {
		t.Fatalf("Create: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("CreateFn not called")
	}

	// Default (nil func) → no-op, nil error
	m = &Repo{}
	if err := m.Create(ctx, l); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
}

func TestRepo_Readers(t *testing.T) {
	ctx := context.Background()
	want := &domain.Loan{ID: 2}

	cases := []struct {
		name string
		repo *Repo
		call func(*Repo) (*domain.Loan, error)
	}{
		{
			name: "GetByID",
			repo: &Repo{GetByIDFn: func(_ context.Context, id uint64) (*domain.Loan, error) {
				if id != 2 {
					t.Fatalf("GetByID id mismatch: got %d", id)
				}
				return want, nil
			}},
			call: func(m *Repo) (*domain.Loan, error) { return m.GetByID(ctx, 2) },
		},
		{
			name: "GetByIDForUpdate",
			repo: &Repo{GetByIDForUpdateFn: func(_ context.Context, id uint64) (*domain.Loan, error) {
				if id != 2 {
					t.Fatalf("GetByIDForUpdate id mismatch: got %d", id)
				}
				return want, nil
			}},
			call: func(m *Repo) (*domain.Loan, error) { return m.GetByIDForUpdate(ctx, 2) },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.call(tc.repo)
			if err != nil || got != want {
				t.Fatalf("%s: got %+v, %v", tc.name, got, err)
			}
			// Default (nil func) → context.Canceled
			got, err = tc.call(&Repo{})
			if err != context.Canceled || got != nil {
				t.Fatalf("%s default: got %+v, %v", tc.name, got, err)
			}
		})
	}
}

func TestRepo_Save(t *testing.T) {
	ctx := context.Background()
	l := &domain.Loan{ID: 3}

	wantErr := errors.New("save-fail")
	m := &Repo{
		SaveFn: func(_ context.Context, got *domain.Loan) error {
			if got != l {
				t.Fatalf("Save arg mismatch")
			}
			return wantErr
		},
	}
	if err := m.Save(ctx, l); !errors.Is(err, wantErr) {
		t.Fatalf("Save: want %v, got %v", wantErr, err)
	}

	m = &Repo{}
	if err := m.Save(ctx, l); err != nil {
		t.Fatalf("Save default: want nil, got %v", err)
	}
}
