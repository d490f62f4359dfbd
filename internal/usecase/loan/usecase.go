package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nftlend-backend/internal/domain/event"
	domain "nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/domain/payment"
	"nftlend-backend/internal/domain/ticket"
	"nftlend-backend/internal/domain/uow"
	"nftlend-backend/pkg/u256"
)

// ContractChecker tells whether an address holds deployed code.
type ContractChecker interface {
	IsContract(ctx context.Context, addr common.Address) (bool, error)
}

// Observer counts operation outcomes.
type Observer interface {
	Observe(op string, err error)
}

type nopObserver struct{}

func (nopObserver) Observe(string, error) {}

var errClockRange = errors.New("loan: clock outside 40-bit timestamp range")

// Usecase is the loan lifecycle engine. Every mutating operation runs in one
// unit of work: loan state is saved before any custody, ticket or payment
// call so a re-entrant call observes the new state.
type Usecase struct {
	loans       domain.Repository
	uow         uow.UnitOfWork
	contracts   ContractChecker
	facilitator common.Address
	emitter     event.Emitter
	observer    Observer
	logger      *zap.Logger
	now         func() time.Time
}

type Option func(*Usecase)

func WithEmitter(e event.Emitter) Option { return func(u *Usecase) { u.emitter = e } }
func WithObserver(o Observer) Option     { return func(u *Usecase) { u.observer = o } }
func WithLogger(l *zap.Logger) Option    { return func(u *Usecase) { u.logger = l } }
func WithClock(now func() time.Time) Option {
	return func(u *Usecase) { u.now = now }
}

// NewUsecase wires the engine. facilitator holds escrowed collateral and
// receives origination fees.
func NewUsecase(loans domain.Repository, tx uow.UnitOfWork, contracts ContractChecker, facilitator common.Address, opts ...Option) *Usecase {
	u := &Usecase{
		loans:       loans,
		uow:         tx,
		contracts:   contracts,
		facilitator: facilitator,
		emitter:     event.NoopEmitter{},
		observer:    nopObserver{},
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Usecase) CreateLoan(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	var (
		dto  *LoanDTO
		evts []event.Event
	)
	err := u.createLoan(ctx, in, &dto, &evts)
	id := uint64(0)
	if dto != nil {
		id = dto.LoanID
	}
	u.finish(ctx, "create", id, err, evts)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (u *Usecase) createLoan(ctx context.Context, in CreateLoanInput, out **LoanDTO, evts *[]event.Event) error {
	if in.MinDurationSeconds == 0 {
		return domain.ErrZeroDuration
	}
	if in.MinLoanAmount.IsZero() {
		return domain.ErrZeroAmount
	}
	if !in.MinLoanAmount.FitsBits(domain.AmountBits) {
		return domain.ErrAmountTooWide
	}
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		settings, err := r.Settings.Get(ctx)
		if err != nil {
			return fmt.Errorf("loan: read settings: %w", err)
		}
		if settings.IsTicketContract(in.CollateralContract) {
			return domain.ErrTicketCollateral
		}

		l := &domain.Loan{
			PerAnnumInterestRate:    in.MaxPerAnnumInterestRate,
			DurationSeconds:         in.MinDurationSeconds,
			CollateralContract:      in.CollateralContract,
			CollateralTokenID:       in.CollateralTokenID,
			AllowLoanAmountIncrease: in.AllowLoanAmountIncrease,
			OriginationFeeRate:      settings.OriginationFeeRate,
			LoanAssetContract:       in.LoanAssetContract,
			LoanAmount:              in.MinLoanAmount,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}

		if err := r.Custody.TransferInto(ctx, in.CollateralContract, in.CollateralTokenID, in.Caller); err != nil {
			return fmt.Errorf("loan: escrow collateral: %w", err)
		}
		if err := r.BorrowTickets.Mint(ctx, in.BorrowTicketRecipient, l.ID); err != nil {
			return fmt.Errorf("loan: mint borrow ticket: %w", err)
		}

		*out = toDTO(l)
		*evts = append(*evts, domain.CreatedEvent{
			LoanID:                  l.ID,
			Minter:                  in.Caller,
			CollateralTokenID:       in.CollateralTokenID,
			CollateralContract:      in.CollateralContract,
			MaxPerAnnumInterestRate: in.MaxPerAnnumInterestRate,
			LoanAssetContract:       in.LoanAssetContract,
			AllowLoanAmountIncrease: in.AllowLoanAmountIncrease,
			MinLoanAmount:           in.MinLoanAmount,
			MinDurationSeconds:      in.MinDurationSeconds,
		})
		return nil
	})
}

// CloseLoan cancels a loan that was never funded and returns the collateral.
func (u *Usecase) CloseLoan(ctx context.Context, caller common.Address, loanID uint64, collateralRecipient common.Address) (*LoanDTO, error) {
	var (
		dto  *LoanDTO
		evts []event.Event
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Closed {
			return domain.ErrClosed
		}
		borrower, err := r.BorrowTickets.OwnerOf(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("loan: borrow ticket owner: %w", err)
		}
		if borrower != caller {
			return domain.ErrNotBorrowTicketHolder
		}
		if l.Funded() {
			return domain.ErrHasLender
		}

		l.Closed = true
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Custody.TransferOut(ctx, l.CollateralContract, l.CollateralTokenID, collateralRecipient); err != nil {
			return fmt.Errorf("loan: release collateral: %w", err)
		}

		dto = toDTO(l)
		evts = append(evts, domain.ClosedEvent{LoanID: l.ID})
		return nil
	})
	u.finish(ctx, "close", loanID, err, evts)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Lend funds an unfunded loan, or buys out the current lender of a funded one.
func (u *Usecase) Lend(ctx context.Context, in LendInput) (*LendResult, error) {
	var (
		out  *lendOutcome
		evts []event.Event
	)
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Closed {
			return domain.ErrClosed
		}
		if !in.Amount.FitsBits(domain.AmountBits) {
			return domain.ErrAmountTooWide
		}
		now, err := u.timestamp()
		if err != nil {
			return err
		}
		if !l.Funded() {
			out, err = u.lendInitial(ctx, r, l, in, now)
		} else {
			out, err = u.lendBuyout(ctx, r, l, in, now)
		}
		if err != nil {
			return err
		}

		if out.buyout {
			evts = append(evts, domain.BuyoutEvent{
				LoanID:         l.ID,
				Lender:         in.Caller,
				Replaced:       out.replaced,
				InterestEarned: out.interestPaid,
				ReplacedAmount: out.replacedAmount,
			})
		}
		evts = append(evts, domain.LentEvent{
			LoanID:          l.ID,
			Lender:          in.Caller,
			InterestRate:    in.InterestRate,
			Amount:          in.Amount,
			DurationSeconds: in.DurationSeconds,
		})
		return nil
	})
	u.finish(ctx, "lend", in.LoanID, err, evts)
	if err != nil {
		return nil, err
	}
	return out.public(), nil
}

func (u *Usecase) lendInitial(ctx context.Context, r uow.Repos, l *domain.Loan, in LendInput, now uint64) (*lendOutcome, error) {
	ok, err := u.contracts.IsContract(ctx, l.LoanAssetContract)
	if err != nil {
		return nil, fmt.Errorf("loan: check loan asset: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidAsset
	}
	if err := checkTerms(l, in); err != nil {
		return nil, err
	}
	borrower, err := r.BorrowTickets.OwnerOf(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("loan: borrow ticket owner: %w", err)
	}
	payout, err := domain.InitialPayout(in.Amount, l.OriginationFeeRate)
	if err != nil {
		return nil, err
	}

	l.PerAnnumInterestRate = in.InterestRate
	l.LastAccumulatedTimestamp = now
	l.DurationSeconds = in.DurationSeconds
	l.LoanAmount = in.Amount
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}

	if err := u.pay(ctx, r, l.LoanAssetContract, in.Caller,
		leg{u.facilitator, payout.FacilitatorTake},
		leg{borrower, payout.Borrower},
	); err != nil {
		return nil, err
	}
	if err := r.LendTickets.Mint(ctx, in.LendTicketRecipient, l.ID); err != nil {
		return nil, fmt.Errorf("loan: mint lend ticket: %w", err)
	}
	return &lendOutcome{loan: toDTO(l)}, nil
}

func (u *Usecase) lendBuyout(ctx context.Context, r uow.Repos, l *domain.Loan, in LendInput, now uint64) (*lendOutcome, error) {
	if err := checkTerms(l, in); err != nil {
		return nil, err
	}
	settings, err := r.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loan: read settings: %w", err)
	}
	previous := domain.Terms{Amount: l.LoanAmount, DurationSeconds: l.DurationSeconds, Rate: l.PerAnnumInterestRate}
	proposed := domain.Terms{Amount: in.Amount, DurationSeconds: in.DurationSeconds, Rate: in.InterestRate}
	if !domain.IsValidImprovement(previous, proposed, settings.ImprovementRate) {
		return nil, domain.ErrInsufficientImprovement
	}

	accrued, err := domain.AccruedFor(l, now)
	if err != nil {
		if errors.Is(err, u256.ErrOverflow) {
			return nil, domain.ErrInterestOverflow
		}
		return nil, err
	}
	if !accrued.FitsBits(domain.AmountBits) {
		return nil, domain.ErrInterestOverflow
	}
	increase, err := in.Amount.Sub(previous.Amount)
	if err != nil {
		return nil, domain.ErrAmountTooLow
	}

	lender, err := lendTicketOwner(ctx, r, l.ID)
	if err != nil {
		return nil, err
	}
	borrower, err := r.BorrowTickets.OwnerOf(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("loan: borrow ticket owner: %w", err)
	}
	payout, err := domain.BuyoutPayout(previous.Amount, accrued, increase, l.OriginationFeeRate)
	if err != nil {
		return nil, err
	}

	l.AccumulatedInterest = accrued
	l.PerAnnumInterestRate = in.InterestRate
	l.LastAccumulatedTimestamp = now
	l.DurationSeconds = in.DurationSeconds
	l.LoanAmount = in.Amount
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}

	legs := []leg{{lender, payout.OutgoingLender}}
	if !increase.IsZero() {
		legs = []leg{
			{u.facilitator, payout.FacilitatorTake},
			{lender, payout.OutgoingLender},
			{borrower, payout.Borrower},
		}
	}
	if err := u.pay(ctx, r, l.LoanAssetContract, in.Caller, legs...); err != nil {
		return nil, err
	}
	if err := r.LendTickets.Transfer(ctx, lender, in.LendTicketRecipient, l.ID); err != nil {
		return nil, fmt.Errorf("loan: transfer lend ticket: %w", err)
	}
	return &lendOutcome{
		loan:           toDTO(l),
		buyout:         true,
		replaced:       lender,
		interestPaid:   accrued,
		replacedAmount: previous.Amount,
	}, nil
}

// RepayAndCloseLoan pays principal plus interest to the lend ticket holder
// and releases the collateral to the borrow ticket holder.
func (u *Usecase) RepayAndCloseLoan(ctx context.Context, caller common.Address, loanID uint64) (*LoanDTO, error) {
	var (
		dto  *LoanDTO
		evts []event.Event
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Closed {
			return domain.ErrClosed
		}
		now, err := u.timestamp()
		if err != nil {
			return err
		}
		lender, err := lendTicketOwner(ctx, r, l.ID)
		if err != nil {
			return err
		}
		borrower, err := r.BorrowTickets.OwnerOf(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("loan: borrow ticket owner: %w", err)
		}
		interest, err := domain.AccruedFor(l, now)
		if err != nil {
			return err
		}
		total, err := interest.Add(l.LoanAmount)
		if err != nil {
			return err
		}

		l.Closed = true
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := u.pay(ctx, r, l.LoanAssetContract, caller, leg{lender, total}); err != nil {
			return err
		}
		if err := r.Custody.TransferOut(ctx, l.CollateralContract, l.CollateralTokenID, borrower); err != nil {
			return fmt.Errorf("loan: release collateral: %w", err)
		}

		dto = toDTO(l)
		evts = append(evts,
			domain.RepaidEvent{LoanID: l.ID, Repayer: caller, Lender: lender, InterestEarned: interest, LoanAmount: l.LoanAmount},
			domain.ClosedEvent{LoanID: l.ID},
		)
		return nil
	})
	u.finish(ctx, "repay", loanID, err, evts)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// SeizeCollateral lets the lend ticket holder take the collateral once the
// loan is past due. No payment is made.
func (u *Usecase) SeizeCollateral(ctx context.Context, caller common.Address, loanID uint64, collateralRecipient common.Address) (*LoanDTO, error) {
	var (
		dto  *LoanDTO
		evts []event.Event
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if l.Closed {
			return domain.ErrClosed
		}
		lender, err := lendTicketOwner(ctx, r, l.ID)
		if err != nil {
			return err
		}
		if lender != caller {
			return domain.ErrNotLendTicketHolder
		}
		now, err := u.timestamp()
		if err != nil {
			return err
		}
		if now <= l.EndSeconds() {
			return domain.ErrNotLate
		}

		l.Closed = true
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		if err := r.Custody.TransferOut(ctx, l.CollateralContract, l.CollateralTokenID, collateralRecipient); err != nil {
			return fmt.Errorf("loan: release collateral: %w", err)
		}

		dto = toDTO(l)
		evts = append(evts,
			domain.CollateralSeizedEvent{LoanID: l.ID, Lender: lender, Recipient: collateralRecipient},
			domain.ClosedEvent{LoanID: l.ID},
		)
		return nil
	})
	u.finish(ctx, "seize", loanID, err, evts)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func checkTerms(l *domain.Loan, in LendInput) error {
	if in.InterestRate > l.PerAnnumInterestRate {
		return domain.ErrRateTooHigh
	}
	if in.DurationSeconds < l.DurationSeconds {
		return domain.ErrDurationTooLow
	}
	if l.AllowLoanAmountIncrease {
		if in.Amount.Lt(l.LoanAmount) {
			return domain.ErrAmountTooLow
		}
	} else if !in.Amount.Eq(l.LoanAmount) {
		return domain.ErrInvalidAmount
	}
	return nil
}

func lendTicketOwner(ctx context.Context, r uow.Repos, loanID uint64) (common.Address, error) {
	owner, err := r.LendTickets.OwnerOf(ctx, loanID)
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		return common.Address{}, domain.ErrNotFunded
	case err != nil:
		return common.Address{}, fmt.Errorf("loan: lend ticket owner: %w", err)
	}
	return owner, nil
}

type leg struct {
	to     common.Address
	amount u256.Int
}

// pay runs each leg from payer in order and stops at the first failure.
func (u *Usecase) pay(ctx context.Context, r uow.Repos, asset, payer common.Address, legs ...leg) error {
	for _, lg := range legs {
		if err := payment.SafeTransferFrom(ctx, r.Payments, asset, payer, lg.to, lg.amount); err != nil {
			return fmt.Errorf("loan: pay %s: %w", lg.to.Hex(), err)
		}
	}
	return nil
}

func (u *Usecase) timestamp() (uint64, error) {
	s := u.now().Unix()
	if s <= 0 || uint64(s) >= 1<<domain.TimestampBits {
		return 0, errClockRange
	}
	return uint64(s), nil
}

func (u *Usecase) finish(ctx context.Context, op string, loanID uint64, err error, evts []event.Event) {
	u.observer.Observe(op, err)
	if err != nil {
		fields := []zap.Field{zap.String("op", op), zap.Uint64("loan_id", loanID), zap.Error(err)}
		if domain.Kind(err) == domain.KindInternal {
			u.logger.Warn("loan operation failed", fields...)
		} else {
			u.logger.Debug("loan operation rejected", fields...)
		}
		return
	}
	u.logger.Info("loan operation committed", zap.String("op", op), zap.Uint64("loan_id", loanID))
	for _, e := range evts {
		u.emitter.Emit(ctx, e)
	}
}

type lendOutcome struct {
	loan           *LoanDTO
	buyout         bool
	replaced       common.Address
	interestPaid   u256.Int
	replacedAmount u256.Int
}

func (o *lendOutcome) public() *LendResult {
	if o == nil {
		return nil
	}
	res := &LendResult{Loan: o.loan, Buyout: o.buyout}
	if o.buyout {
		replaced, paid := o.replaced, o.interestPaid
		res.ReplacedLender = &replaced
		res.InterestPaid = &paid
	}
	return res
}
