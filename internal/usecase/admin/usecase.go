package admin

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nftlend-backend/internal/domain/event"
	"nftlend-backend/internal/domain/fee"
	"nftlend-backend/internal/domain/payment"
	"nftlend-backend/internal/domain/ticket"
	"nftlend-backend/internal/domain/uow"
	"nftlend-backend/pkg/u256"
)

// Usecase holds the facilitator's privileged operations. Every mutation
// requires caller == admin.
type Usecase struct {
	settings    fee.Repository
	uow         uow.UnitOfWork
	admin       common.Address
	facilitator common.Address
	emitter     event.Emitter
	logger      *zap.Logger
}

type Option func(*Usecase)

func WithEmitter(e event.Emitter) Option { return func(u *Usecase) { u.emitter = e } }
func WithLogger(l *zap.Logger) Option    { return func(u *Usecase) { u.logger = l } }

func NewUsecase(settings fee.Repository, tx uow.UnitOfWork, admin, facilitator common.Address, opts ...Option) *Usecase {
	u := &Usecase{
		settings:    settings,
		uow:         tx,
		admin:       admin,
		facilitator: facilitator,
		emitter:     event.NoopEmitter{},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Usecase) Settings(ctx context.Context) (*SettingsDTO, error) {
	s, err := u.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return toDTO(s, u.facilitator), nil
}

// SetOriginationFeeRate applies to loans created afterwards.
func (u *Usecase) SetOriginationFeeRate(ctx context.Context, caller common.Address, rate u256.Int) (*SettingsDTO, error) {
	if err := fee.ValidateOriginationFeeRate(rate); err != nil {
		return nil, err
	}
	return u.update(ctx, caller, "set_origination_fee_rate", func(s *fee.Settings) ([]event.Event, error) {
		s.OriginationFeeRate = rate
		return []event.Event{fee.OriginationFeeRateUpdatedEvent{Rate: rate}}, nil
	})
}

func (u *Usecase) SetImprovementRate(ctx context.Context, caller common.Address, rate u256.Int) (*SettingsDTO, error) {
	if err := fee.ValidateImprovementRate(rate); err != nil {
		return nil, err
	}
	return u.update(ctx, caller, "set_improvement_rate", func(s *fee.Settings) ([]event.Event, error) {
		s.ImprovementRate = rate
		return []event.Event{fee.ImprovementRateUpdatedEvent{Rate: rate}}, nil
	})
}

// BindTicketContracts sets each ticket contract once.
func (u *Usecase) BindTicketContracts(ctx context.Context, caller common.Address, in BindTicketsInput) (*SettingsDTO, error) {
	if in.Borrow == nil && in.Lend == nil {
		return nil, fee.ErrNothingToBind
	}
	for _, a := range []*common.Address{in.Borrow, in.Lend} {
		if a != nil && *a == (common.Address{}) {
			return nil, fee.ErrZeroAddress
		}
	}
	return u.update(ctx, caller, "bind_ticket_contracts", func(s *fee.Settings) ([]event.Event, error) {
		var evts []event.Event
		bind := func(kind ticket.Kind, slot *common.Address, addr *common.Address) error {
			if addr == nil {
				return nil
			}
			if *slot != (common.Address{}) {
				return fmt.Errorf("%w: %s", fee.ErrAlreadyBound, kind)
			}
			*slot = *addr
			evts = append(evts, fee.TicketContractBoundEvent{Kind: string(kind), Contract: *addr})
			return nil
		}
		if err := bind(ticket.KindBorrow, &s.BorrowTicketContract, in.Borrow); err != nil {
			return nil, err
		}
		if err := bind(ticket.KindLend, &s.LendTicketContract, in.Lend); err != nil {
			return nil, err
		}
		return evts, nil
	})
}

// WithdrawOriginationFees moves collected fees out of the facilitator account.
func (u *Usecase) WithdrawOriginationFees(ctx context.Context, caller common.Address, in WithdrawInput) (*BalanceDTO, error) {
	if caller != u.admin {
		return nil, fee.ErrUnauthorized
	}
	if in.To == (common.Address{}) {
		return nil, fee.ErrZeroAddress
	}
	var left u256.Int
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := payment.SafeTransferFrom(ctx, r.Payments, in.Asset, u.facilitator, in.To, in.Amount); err != nil {
			return err
		}
		var err error
		left, err = r.Payments.BalanceOf(ctx, in.Asset, u.facilitator)
		return err
	})
	if err != nil {
		u.logger.Warn("fee withdrawal failed", zap.String("asset", in.Asset.Hex()), zap.Error(err))
		return nil, err
	}
	u.logger.Info("origination fees withdrawn",
		zap.String("asset", in.Asset.Hex()),
		zap.String("amount", in.Amount.String()),
		zap.String("to", in.To.Hex()))
	u.emitter.Emit(ctx, fee.FeesWithdrawnEvent{Asset: in.Asset, Amount: in.Amount, To: in.To})
	return &BalanceDTO{Asset: in.Asset, Account: u.facilitator, Amount: left}, nil
}

// CreditBalance records an inbound deposit on the payment ledger.
func (u *Usecase) CreditBalance(ctx context.Context, caller common.Address, in CreditInput) (*BalanceDTO, error) {
	if caller != u.admin {
		return nil, fee.ErrUnauthorized
	}
	if in.Account == (common.Address{}) {
		return nil, fee.ErrZeroAddress
	}
	var total u256.Int
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Payments.Credit(ctx, in.Asset, in.Account, in.Amount); err != nil {
			return err
		}
		var err error
		total, err = r.Payments.BalanceOf(ctx, in.Asset, in.Account)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.logger.Info("balance credited", zap.String("account", in.Account.Hex()), zap.String("amount", in.Amount.String()))
	return &BalanceDTO{Asset: in.Asset, Account: in.Account, Amount: total}, nil
}

func (u *Usecase) Balance(ctx context.Context, asset, account common.Address) (*BalanceDTO, error) {
	var amount u256.Int
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		amount, err = r.Payments.BalanceOf(ctx, asset, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BalanceDTO{Asset: asset, Account: account, Amount: amount}, nil
}

func (u *Usecase) update(ctx context.Context, caller common.Address, op string, mutate func(s *fee.Settings) ([]event.Event, error)) (*SettingsDTO, error) {
	if caller != u.admin {
		return nil, fee.ErrUnauthorized
	}
	var (
		dto  *SettingsDTO
		evts []event.Event
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		s, err := r.Settings.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		if evts, err = mutate(s); err != nil {
			return err
		}
		if err := r.Settings.Save(ctx, s); err != nil {
			return err
		}
		dto = toDTO(s, u.facilitator)
		return nil
	})
	if err != nil {
		u.logger.Debug("settings update rejected", zap.String("op", op), zap.Error(err))
		return nil, err
	}
	u.logger.Info("settings updated", zap.String("op", op))
	for _, e := range evts {
		u.emitter.Emit(ctx, e)
	}
	return dto, nil
}
