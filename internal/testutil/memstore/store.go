// Package memstore is an in-memory stand-in for the gorm repositories and
// unit of work. A failed transaction restores the state it started from,
// nested transactions behave like savepoints. Not safe for concurrent use.
package memstore

import (
	"context"
	"maps"

	"github.com/ethereum/go-ethereum/common"

	"nftlend-backend/internal/domain/custody"
	"nftlend-backend/internal/domain/fee"
	"nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/domain/payment"
	"nftlend-backend/internal/domain/ticket"
	"nftlend-backend/internal/domain/uow"
	"nftlend-backend/pkg/u256"
)

var _ uow.UnitOfWork = (*Store)(nil)

type holdingKey struct {
	contract common.Address
	tokenID  string
}

type balanceKey struct {
	asset, account common.Address
}

type state struct {
	nextID   uint64
	loans    map[uint64]loan.Loan
	tickets  map[ticket.Kind]map[uint64]common.Address
	holdings map[holdingKey]common.Address
	balances map[balanceKey]u256.Int
	settings *fee.Settings
}

func (s *state) clone() *state {
	c := &state{
		nextID:   s.nextID,
		loans:    maps.Clone(s.loans),
		tickets:  map[ticket.Kind]map[uint64]common.Address{},
		holdings: maps.Clone(s.holdings),
		balances: maps.Clone(s.balances),
	}
	for k, v := range s.tickets {
		c.tickets[k] = maps.Clone(v)
	}
	if s.settings != nil {
		cp := *s.settings
		c.settings = &cp
	}
	return c
}

type Store struct {
	st        *state
	custodian common.Address
	// Rail, when set, replaces the balance ledger for TransferFrom.
	Rail payment.Rail
}

// New returns an empty store whose custody account is custodian.
func New(custodian common.Address) *Store {
	return &Store{
		custodian: custodian,
		st: &state{
			nextID:   1,
			loans:    map[uint64]loan.Loan{},
			tickets:  map[ticket.Kind]map[uint64]common.Address{ticket.KindBorrow: {}, ticket.KindLend: {}},
			holdings: map[holdingKey]common.Address{},
			balances: map[balanceKey]u256.Int{},
		},
	}
}

// Repos gives direct access outside any transaction.
func (s *Store) Repos() uow.Repos {
	return uow.Repos{
		Loans:         loanRepo{s},
		BorrowTickets: ticketRepo{s, ticket.KindBorrow},
		LendTickets:   ticketRepo{s, ticket.KindLend},
		Custody:       custodyRepo{s},
		Payments:      ledger{s},
		Settings:      settingsRepo{s},
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	snap := s.st.clone()
	if err := fn(s.Repos()); err != nil {
		s.st = snap
		return err
	}
	return nil
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID uint64, fn func(r uow.Repos, l *loan.Loan) error) error {
	return s.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}

// Holder returns the recorded owner of a non-fungible token.
func (s *Store) Holder(contract common.Address, tokenID u256.Int) (common.Address, bool) {
	owner, ok := s.st.holdings[holdingKey{contract, tokenID.String()}]
	return owner, ok
}

// SetHolder records owner for a token, as if it was minted to them.
func (s *Store) SetHolder(contract common.Address, tokenID u256.Int, owner common.Address) {
	s.st.holdings[holdingKey{contract, tokenID.String()}] = owner
}

func (s *Store) Balance(asset, account common.Address) u256.Int {
	return s.st.balances[balanceKey{asset, account}]
}

type loanRepo struct{ s *Store }

func (r loanRepo) Create(_ context.Context, l *loan.Loan) error {
	l.ID = r.s.st.nextID
	r.s.st.nextID++
	r.s.st.loans[l.ID] = *l
	return nil
}

func (r loanRepo) GetByID(_ context.Context, id uint64) (*loan.Loan, error) {
	l, ok := r.s.st.loans[id]
	if !ok {
		return nil, loan.ErrNotFound
	}
	return &l, nil
}

func (r loanRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*loan.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r loanRepo) Save(_ context.Context, l *loan.Loan) error {
	if _, ok := r.s.st.loans[l.ID]; !ok {
		return loan.ErrNotFound
	}
	r.s.st.loans[l.ID] = *l
	return nil
}

type ticketRepo struct {
	s    *Store
	kind ticket.Kind
}

func (r ticketRepo) Mint(_ context.Context, to common.Address, loanID uint64) error {
	if to == (common.Address{}) {
		return ticket.ErrZeroRecipient
	}
	owners := r.s.st.tickets[r.kind]
	if _, ok := owners[loanID]; ok {
		return ticket.ErrAlreadyMinted
	}
	owners[loanID] = to
	return nil
}

func (r ticketRepo) Transfer(_ context.Context, from, to common.Address, loanID uint64) error {
	owners := r.s.st.tickets[r.kind]
	owner, ok := owners[loanID]
	if !ok {
		return ticket.ErrNotFound
	}
	if owner != from {
		return ticket.ErrNotOwner
	}
	if to == (common.Address{}) {
		return ticket.ErrZeroRecipient
	}
	owners[loanID] = to
	return nil
}

func (r ticketRepo) OwnerOf(_ context.Context, loanID uint64) (common.Address, error) {
	owner, ok := r.s.st.tickets[r.kind][loanID]
	if !ok {
		return common.Address{}, ticket.ErrNotFound
	}
	return owner, nil
}

type custodyRepo struct{ s *Store }

func (r custodyRepo) TransferInto(_ context.Context, contract common.Address, tokenID u256.Int, from common.Address) error {
	key := holdingKey{contract, tokenID.String()}
	if owner, ok := r.s.st.holdings[key]; ok && owner != from {
		return custody.ErrNotOwner
	}
	r.s.st.holdings[key] = r.s.custodian
	return nil
}

func (r custodyRepo) TransferOut(_ context.Context, contract common.Address, tokenID u256.Int, to common.Address) error {
	if to == (common.Address{}) {
		return custody.ErrZeroTarget
	}
	key := holdingKey{contract, tokenID.String()}
	if owner, ok := r.s.st.holdings[key]; !ok || owner != r.s.custodian {
		return custody.ErrNotHeld
	}
	r.s.st.holdings[key] = to
	return nil
}

type ledger struct{ s *Store }

func (l ledger) TransferFrom(ctx context.Context, asset, from, to common.Address, amount u256.Int) ([]byte, error) {
	if l.s.Rail != nil {
		return l.s.Rail.TransferFrom(ctx, asset, from, to, amount)
	}
	if to == (common.Address{}) {
		return nil, payment.ErrZeroRecipient
	}
	src := l.s.st.balances[balanceKey{asset, from}]
	left, err := src.Sub(amount)
	if err != nil {
		return payment.ReturnData(false), nil
	}
	l.s.st.balances[balanceKey{asset, from}] = left
	dst, err := l.s.st.balances[balanceKey{asset, to}].Add(amount)
	if err != nil {
		return nil, err
	}
	l.s.st.balances[balanceKey{asset, to}] = dst
	return payment.ReturnData(true), nil
}

func (l ledger) BalanceOf(_ context.Context, asset, account common.Address) (u256.Int, error) {
	return l.s.st.balances[balanceKey{asset, account}], nil
}

func (l ledger) Credit(_ context.Context, asset, account common.Address, amount u256.Int) error {
	sum, err := l.s.st.balances[balanceKey{asset, account}].Add(amount)
	if err != nil {
		return err
	}
	l.s.st.balances[balanceKey{asset, account}] = sum
	return nil
}

type settingsRepo struct{ s *Store }

func (r settingsRepo) Get(context.Context) (*fee.Settings, error) {
	if r.s.st.settings == nil {
		return nil, fee.ErrNotFound
	}
	cp := *r.s.st.settings
	return &cp, nil
}

func (r settingsRepo) GetForUpdate(ctx context.Context) (*fee.Settings, error) {
	return r.Get(ctx)
}

func (r settingsRepo) Save(_ context.Context, s *fee.Settings) error {
	cp := *s
	r.s.st.settings = &cp
	return nil
}

func (r settingsRepo) EnsureDefaults(ctx context.Context, defaults *fee.Settings) (*fee.Settings, error) {
	if r.s.st.settings == nil {
		if err := r.Save(ctx, defaults); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx)
}
