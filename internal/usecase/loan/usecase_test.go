package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftlend-backend/internal/domain/event"
	"nftlend-backend/internal/domain/fee"
	domain "nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/domain/payment"
	"nftlend-backend/internal/testutil/memstore"
	"nftlend-backend/pkg/u256"
)

// ----- fixtures -----

var (
	facilitator = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	borrower    = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	lenderA     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	lenderB     = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	lenderC     = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	stranger    = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	nft         = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	asset       = common.HexToAddress("0x00000000000000000000000000000000000000a5")
	tokenID     = u256.New(7)
)

const (
	t0    = 1_700_000_000
	day   = 24 * 60 * 60
	month = 30 * day
)

type contractSet map[common.Address]bool

func (c contractSet) IsContract(_ context.Context, addr common.Address) (bool, error) {
	return c[addr], nil
}

type recorder struct{ events []event.Event }

func (r *recorder) Emit(_ context.Context, e event.Event) { r.events = append(r.events, e) }

func (r *recorder) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

type opLog struct{ ops []string }

func (o *opLog) Observe(op string, err error) {
	if err != nil {
		op += ":err"
	}
	o.ops = append(o.ops, op)
}

type fixture struct {
	ctx    context.Context
	store  *memstore.Store
	uc     *Usecase
	now    time.Time
	events *recorder
	ops    *opLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New(facilitator)
	_, err := store.Repos().Settings.EnsureDefaults(ctx, fee.Defaults(fee.DefaultOriginationFeeRate, fee.DefaultImprovementRate))
	require.NoError(t, err)
	store.SetHolder(nft, tokenID, borrower)

	f := &fixture{ctx: ctx, store: store, now: time.Unix(t0, 0), events: &recorder{}, ops: &opLog{}}
	f.uc = NewUsecase(store.Repos().Loans, store, contractSet{asset: true}, facilitator,
		WithEmitter(f.events),
		WithObserver(f.ops),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) credit(t *testing.T, who common.Address, amount uint64) {
	t.Helper()
	require.NoError(t, f.store.Repos().Payments.Credit(f.ctx, asset, who, u256.New(amount)))
}

func (f *fixture) balance(who common.Address) string {
	return f.store.Balance(asset, who).String()
}

func (f *fixture) createLoan(t *testing.T, allowIncrease bool, minAmount uint64, minDuration uint32) uint64 {
	t.Helper()
	dto, err := f.uc.CreateLoan(f.ctx, CreateLoanInput{
		Caller:                  borrower,
		CollateralTokenID:       tokenID,
		CollateralContract:      nft,
		MaxPerAnnumInterestRate: 500,
		AllowLoanAmountIncrease: allowIncrease,
		MinLoanAmount:           u256.New(minAmount),
		LoanAssetContract:       asset,
		MinDurationSeconds:      minDuration,
		BorrowTicketRecipient:   borrower,
	})
	require.NoError(t, err)
	return dto.LoanID
}

func lendInput(caller common.Address, id uint64, rate uint16, amount uint64, duration uint32) LendInput {
	return LendInput{
		Caller:              caller,
		LoanID:              id,
		InterestRate:        rate,
		Amount:              u256.New(amount),
		DurationSeconds:     duration,
		LendTicketRecipient: caller,
	}
}

// ----- lifecycle -----

func TestCreateLoan_EscrowsCollateralAndMintsBorrowTicket(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	require.Equal(t, uint64(1), id)

	holder, ok := f.store.Holder(nft, tokenID)
	require.True(t, ok)
	require.Equal(t, facilitator, holder)

	owner, err := f.store.Repos().BorrowTickets.OwnerOf(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, borrower, owner)

	l, err := f.uc.GetLoan(f.ctx, id)
	require.NoError(t, err)
	require.False(t, l.Funded)
	require.False(t, l.Closed)
	require.Equal(t, uint16(500), l.PerAnnumInterestRate)
	require.Equal(t, uint32(month), l.DurationSeconds)
	require.Equal(t, "1000", l.LoanAmount.String())
	require.Equal(t, "10", l.OriginationFeeRate.String())
	require.Equal(t, []string{domain.EventTypeCreated}, f.events.types())

	second := u256.New(8)
	f.store.SetHolder(nft, second, borrower)
	dto, err := f.uc.CreateLoan(f.ctx, CreateLoanInput{
		Caller: borrower, CollateralTokenID: second, CollateralContract: nft,
		MinLoanAmount: u256.New(1), LoanAssetContract: asset, MinDurationSeconds: 1,
		BorrowTicketRecipient: stranger,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), dto.LoanID)
}

func TestCreateLoan_Rejects(t *testing.T) {
	base := CreateLoanInput{
		Caller:                  borrower,
		CollateralTokenID:       tokenID,
		CollateralContract:      nft,
		MaxPerAnnumInterestRate: 100,
		MinLoanAmount:           u256.New(1000),
		LoanAssetContract:       asset,
		MinDurationSeconds:      day,
		BorrowTicketRecipient:   borrower,
	}
	ticketContract := common.HexToAddress("0x00000000000000000000000000000000000000d1")

	cases := []struct {
		name  string
		setup func(*fixture)
		mut   func(*CreateLoanInput)
		want  error
	}{
		{name: "zero duration", mut: func(in *CreateLoanInput) { in.MinDurationSeconds = 0 }, want: domain.ErrZeroDuration},
		{name: "zero amount", mut: func(in *CreateLoanInput) { in.MinLoanAmount = u256.Int{} }, want: domain.ErrZeroAmount},
		{name: "amount wider than 128 bits", mut: func(in *CreateLoanInput) { in.MinLoanAmount = u256.Max(129) }, want: domain.ErrAmountTooWide},
		{
			name: "ticket as collateral",
			setup: func(f *fixture) {
				s, _ := f.store.Repos().Settings.Get(f.ctx)
				s.LendTicketContract = ticketContract
				_ = f.store.Repos().Settings.Save(f.ctx, s)
				f.store.SetHolder(ticketContract, tokenID, borrower)
			},
			mut:  func(in *CreateLoanInput) { in.CollateralContract = ticketContract },
			want: domain.ErrTicketCollateral,
		},
		{name: "collateral owned by someone else", mut: func(in *CreateLoanInput) { in.Caller = stranger }},
		{name: "zero ticket recipient", mut: func(in *CreateLoanInput) { in.BorrowTicketRecipient = common.Address{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(f)
			}
			in := base
			tc.mut(&in)
			dto, err := f.uc.CreateLoan(f.ctx, in)
			require.Error(t, err)
			require.Nil(t, dto)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
			}

			// nothing persisted, nothing emitted
			_, err = f.uc.GetLoan(f.ctx, 1)
			require.ErrorIs(t, err, domain.ErrNotFound)
			holder, _ := f.store.Holder(nft, tokenID)
			require.Equal(t, borrower, holder)
			require.Empty(t, f.events.events)
			require.Equal(t, []string{"create:err"}, f.ops.ops)
		})
	}
}

// Initial funding, one buyout with an increase, repayment.
func TestLoanLifecycle_FundBuyoutRepay(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)

	f.credit(t, lenderA, 1000)
	res, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.NoError(t, err)
	require.False(t, res.Buyout)
	require.True(t, res.Loan.Funded)
	require.Equal(t, uint64(t0), res.Loan.LastAccumulatedTimestamp)
	require.Equal(t, "10", f.balance(facilitator))
	require.Equal(t, "990", f.balance(borrower))
	require.Equal(t, "0", f.balance(lenderA))

	f.advance(month * time.Second)
	owed, err := f.uc.InterestOwed(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, "41", owed.String())

	f.credit(t, lenderB, 1251)
	res, err = f.uc.Lend(f.ctx, lendInput(lenderB, id, 500, 1210, month))
	require.NoError(t, err)
	require.True(t, res.Buyout)
	require.Equal(t, lenderA, *res.ReplacedLender)
	require.Equal(t, "41", res.InterestPaid.String())
	require.Equal(t, "12", f.balance(facilitator))
	require.Equal(t, "1041", f.balance(lenderA))
	require.Equal(t, "1198", f.balance(borrower))
	require.Equal(t, "0", f.balance(lenderB))
	require.Equal(t, "41", res.Loan.AccumulatedInterest.String())
	require.Equal(t, "1210", res.Loan.LoanAmount.String())

	lender, err := f.store.Repos().LendTickets.OwnerOf(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, lenderB, lender)

	f.advance(month * time.Second)
	total, err := f.uc.TotalOwed(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, "1300", total.String())

	f.credit(t, borrower, 102)
	dto, err := f.uc.RepayAndCloseLoan(f.ctx, borrower, id)
	require.NoError(t, err)
	require.True(t, dto.Closed)
	require.Equal(t, "1300", f.balance(lenderB))
	require.Equal(t, "0", f.balance(borrower))
	holder, _ := f.store.Holder(nft, tokenID)
	require.Equal(t, borrower, holder)

	require.Equal(t, []string{
		domain.EventTypeCreated,
		domain.EventTypeLent,
		domain.EventTypeBuyout,
		domain.EventTypeLent,
		domain.EventTypeRepaid,
		domain.EventTypeClosed,
	}, f.events.types())
	repaid := f.events.events[4].(domain.RepaidEvent)
	require.Equal(t, "90", repaid.InterestEarned.String())
	require.Equal(t, lenderB, repaid.Lender)
	require.Equal(t, []string{"create", "lend", "lend", "repay"}, f.ops.ops)
}

func TestBuyout_WithoutIncreasePaysOnlyOutgoingLender(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, false, 1000, month)
	f.credit(t, lenderA, 1000)
	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.NoError(t, err)

	f.advance(5 * day * time.Second)
	f.credit(t, lenderB, 1006)
	// 500 → 450 is exactly a 10% rate cut
	res, err := f.uc.Lend(f.ctx, lendInput(lenderB, id, 450, 1000, month))
	require.NoError(t, err)
	require.True(t, res.Buyout)
	require.Equal(t, "6", res.InterestPaid.String())
	require.Equal(t, "1006", f.balance(lenderA))
	require.Equal(t, "10", f.balance(facilitator))
	require.Equal(t, "990", f.balance(borrower))
	require.Equal(t, "0", f.balance(lenderB))
}

func TestLend_TermChecks(t *testing.T) {
	cases := []struct {
		name          string
		allowIncrease bool
		in            LendInput
		want          error
	}{
		{name: "rate above max", allowIncrease: true, in: lendInput(lenderA, 1, 501, 1000, month), want: domain.ErrRateTooHigh},
		{name: "duration below min", allowIncrease: true, in: lendInput(lenderA, 1, 500, 1000, month-1), want: domain.ErrDurationTooLow},
		{name: "amount below min", allowIncrease: true, in: lendInput(lenderA, 1, 500, 999, month), want: domain.ErrAmountTooLow},
		{name: "amount change not allowed", allowIncrease: false, in: lendInput(lenderA, 1, 500, 1001, month), want: domain.ErrInvalidAmount},
		{name: "unknown loan", allowIncrease: true, in: lendInput(lenderA, 9, 500, 1000, month), want: domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.createLoan(t, tc.allowIncrease, 1000, month)
			f.credit(t, lenderA, 2000)
			_, err := f.uc.Lend(f.ctx, tc.in)
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, "2000", f.balance(lenderA))
		})
	}
}

func TestLend_RejectsAssetWithoutCode(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	f.uc.contracts = contractSet{}
	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.ErrorIs(t, err, domain.ErrInvalidAsset)
	require.Equal(t, domain.KindValidation, domain.Kind(err))
}

func TestBuyout_RequiresImprovement(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	f.credit(t, lenderA, 1000)
	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.NoError(t, err)

	f.credit(t, lenderB, 5000)
	for _, in := range []LendInput{
		lendInput(lenderB, id, 500, 1000, month),
		lendInput(lenderB, id, 500, 1099, month),
		lendInput(lenderB, id, 451, 1000, month),
	} {
		_, err := f.uc.Lend(f.ctx, in)
		require.ErrorIs(t, err, domain.ErrInsufficientImprovement)
	}
	// terms never loosen below the current lender's
	_, err = f.uc.Lend(f.ctx, lendInput(lenderB, id, 100, 900, month))
	require.ErrorIs(t, err, domain.ErrAmountTooLow)

	lender, _ := f.store.Repos().LendTickets.OwnerOf(f.ctx, id)
	require.Equal(t, lenderA, lender)
}

func TestCloseLoan(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)

	_, err := f.uc.CloseLoan(f.ctx, stranger, id, stranger)
	require.ErrorIs(t, err, domain.ErrNotBorrowTicketHolder)

	recipient := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	dto, err := f.uc.CloseLoan(f.ctx, borrower, id, recipient)
	require.NoError(t, err)
	require.True(t, dto.Closed)
	holder, _ := f.store.Holder(nft, tokenID)
	require.Equal(t, recipient, holder)

	_, err = f.uc.CloseLoan(f.ctx, borrower, id, recipient)
	require.ErrorIs(t, err, domain.ErrClosed)
}

func TestCloseLoan_FundedLoanRefused(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	f.credit(t, lenderA, 1000)
	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.NoError(t, err)

	_, err = f.uc.CloseLoan(f.ctx, borrower, id, borrower)
	require.ErrorIs(t, err, domain.ErrHasLender)
	require.Equal(t, domain.KindState, domain.Kind(err))
}

func TestSeizeCollateral(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, day)

	_, err := f.uc.SeizeCollateral(f.ctx, lenderA, id, lenderA)
	require.ErrorIs(t, err, domain.ErrNotFunded)

	f.credit(t, lenderA, 1000)
	_, err = f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, day))
	require.NoError(t, err)
	end, err := f.uc.LoanEndSeconds(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint64(t0+day), end)

	f.advance(day * time.Second)
	_, err = f.uc.SeizeCollateral(f.ctx, lenderA, id, lenderA)
	require.ErrorIs(t, err, domain.ErrNotLate)

	f.advance(time.Second)
	_, err = f.uc.SeizeCollateral(f.ctx, stranger, id, stranger)
	require.ErrorIs(t, err, domain.ErrNotLendTicketHolder)

	before := f.balance(lenderA)
	dto, err := f.uc.SeizeCollateral(f.ctx, lenderA, id, lenderA)
	require.NoError(t, err)
	require.True(t, dto.Closed)
	holder, _ := f.store.Holder(nft, tokenID)
	require.Equal(t, lenderA, holder)
	require.Equal(t, before, f.balance(lenderA))
	require.Equal(t, domain.EventTypeCollateralSeized, f.events.events[len(f.events.events)-2].EventType())
}

func TestRepay_UnfundedLoan(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, day)
	_, err := f.uc.RepayAndCloseLoan(f.ctx, borrower, id)
	require.ErrorIs(t, err, domain.ErrNotFunded)
}

func TestClosedLoanRejectsEverything(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, day)
	f.credit(t, lenderA, 1000)
	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, day))
	require.NoError(t, err)
	f.credit(t, borrower, 1000)
	_, err = f.uc.RepayAndCloseLoan(f.ctx, borrower, id)
	require.NoError(t, err)
	f.advance(2 * day * time.Second)

	_, err = f.uc.CloseLoan(f.ctx, borrower, id, borrower)
	require.ErrorIs(t, err, domain.ErrClosed)
	_, err = f.uc.Lend(f.ctx, lendInput(lenderB, id, 1, 5000, 10*day))
	require.ErrorIs(t, err, domain.ErrClosed)
	_, err = f.uc.RepayAndCloseLoan(f.ctx, borrower, id)
	require.ErrorIs(t, err, domain.ErrClosed)
	_, err = f.uc.SeizeCollateral(f.ctx, lenderA, id, lenderA)
	require.ErrorIs(t, err, domain.ErrClosed)

	owed, err := f.uc.InterestOwed(f.ctx, id)
	require.NoError(t, err)
	require.True(t, owed.IsZero())
	total, err := f.uc.TotalOwed(f.ctx, id)
	require.NoError(t, err)
	require.True(t, total.IsZero())
}

// ----- payment rail behaviour -----

type railFunc func(ctx context.Context, asset, from, to common.Address, amount u256.Int) ([]byte, error)

func (f railFunc) TransferFrom(ctx context.Context, asset, from, to common.Address, amount u256.Int) ([]byte, error) {
	return f(ctx, asset, from, to, amount)
}

func TestLend_FailedTransferRollsBack(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	f.credit(t, lenderA, 999)
	f.events.events = nil

	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.ErrorIs(t, err, payment.ErrTransferFailed)

	l, err := f.uc.GetLoan(f.ctx, id)
	require.NoError(t, err)
	require.False(t, l.Funded)
	require.Equal(t, "1000", l.LoanAmount.String())
	_, err = f.store.Repos().LendTickets.OwnerOf(f.ctx, id)
	require.Error(t, err)
	// the fee leg succeeded before the borrower leg failed, and was undone
	require.Equal(t, "0", f.balance(facilitator))
	require.Equal(t, "999", f.balance(lenderA))
	require.Empty(t, f.events.events)
}

func TestLend_ReturnDataShapes(t *testing.T) {
	cases := []struct {
		name string
		ret  []byte
		err  error
		ok   bool
	}{
		{name: "no return data", ret: nil, ok: true},
		{name: "abi true", ret: payment.ReturnData(true), ok: true},
		{name: "abi false", ret: payment.ReturnData(false)},
		{name: "short word", ret: make([]byte, 31)},
		{name: "abi two", ret: common.LeftPadBytes([]byte{2}, 32)},
		{name: "call error", err: errors.New("reverted")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.createLoan(t, true, 1000, month)
			f.store.Rail = railFunc(func(context.Context, common.Address, common.Address, common.Address, u256.Int) ([]byte, error) {
				return tc.ret, tc.err
			})
			_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, payment.ErrTransferFailed)
			l, _ := f.uc.GetLoan(f.ctx, id)
			require.False(t, l.Funded)
		})
	}
}

// A rail that calls back into the engine sees state already updated.
func TestReentrantRailObservesSavedState(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)

	var inner []error
	f.store.Rail = railFunc(func(ctx context.Context, _, _, _ common.Address, _ u256.Int) ([]byte, error) {
		if len(inner) == 0 {
			_, err := f.uc.CloseLoan(ctx, borrower, id, borrower)
			inner = append(inner, err)
			_, err = f.uc.Lend(ctx, lendInput(stranger, id, 1, 5000, 10*month))
			inner = append(inner, err)
		}
		return nil, nil
	})
	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.NoError(t, err)
	require.Len(t, inner, 2)
	require.ErrorIs(t, inner[0], domain.ErrHasLender)
	// lend ticket is minted after payment, so a nested buyout finds no lender
	require.ErrorIs(t, inner[1], domain.ErrNotFunded)

	lender, err := f.store.Repos().LendTickets.OwnerOf(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, lenderA, lender)

	f.store.Rail = railFunc(func(ctx context.Context, _, _, _ common.Address, _ u256.Int) ([]byte, error) {
		_, err := f.uc.RepayAndCloseLoan(ctx, borrower, id)
		inner = append(inner, err)
		return nil, nil
	})
	_, err = f.uc.RepayAndCloseLoan(f.ctx, borrower, id)
	require.NoError(t, err)
	require.ErrorIs(t, inner[2], domain.ErrClosed)
}

func TestClockOutsideTimestampRange(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	f.now = time.Unix(1<<domain.TimestampBits, 0)
	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.ErrorIs(t, err, errClockRange)
}

func TestQueries_UnfundedLoanOwesNothing(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	owed, err := f.uc.InterestOwed(f.ctx, id)
	require.NoError(t, err)
	require.True(t, owed.IsZero())
	total, err := f.uc.TotalOwed(f.ctx, id)
	require.NoError(t, err)
	require.True(t, total.IsZero())

	_, err = f.uc.InterestOwed(f.ctx, 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (f *fixture) setFeeRate(t *testing.T, rate uint64) {
	t.Helper()
	s, err := f.store.Repos().Settings.Get(f.ctx)
	require.NoError(t, err)
	s.OriginationFeeRate = u256.New(rate)
	require.NoError(t, f.store.Repos().Settings.Save(f.ctx, s))
}

// The fee rate is fixed when the loan is created; later setting changes
// apply to new loans only.
func TestLoanKeepsOriginationFeeRate(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	f.setFeeRate(t, 50)

	f.credit(t, lenderA, 1000)
	res, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.NoError(t, err)
	require.Equal(t, "10", res.Loan.OriginationFeeRate.String())
	require.Equal(t, "10", f.balance(facilitator))
	require.Equal(t, "990", f.balance(borrower))

	f.advance(month * time.Second)
	f.credit(t, lenderB, 1251)
	_, err = f.uc.Lend(f.ctx, lendInput(lenderB, id, 500, 1210, month))
	require.NoError(t, err)
	// 1% of the 210 increase, not 5%
	require.Equal(t, "12", f.balance(facilitator))
	require.Equal(t, "1198", f.balance(borrower))
	require.Equal(t, "0", f.balance(lenderB))
}

func TestBuyout_ChainBuildsOnAccruedInterest(t *testing.T) {
	f := newFixture(t)
	id := f.createLoan(t, true, 1000, month)
	f.credit(t, lenderA, 1000)
	_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
	require.NoError(t, err)

	f.advance(month * time.Second)
	f.credit(t, lenderB, 1251)
	first, err := f.uc.Lend(f.ctx, lendInput(lenderB, id, 500, 1210, month))
	require.NoError(t, err)
	require.Equal(t, "41", first.Loan.AccumulatedInterest.String())

	f.advance(month * time.Second)
	// 1210 + 10% = 1331; lenderB is owed 1210 + 90
	f.credit(t, lenderC, 1421)
	second, err := f.uc.Lend(f.ctx, lendInput(lenderC, id, 500, 1331, month))
	require.NoError(t, err)
	require.True(t, second.Buyout)
	require.Equal(t, lenderB, *second.ReplacedLender)
	require.Equal(t, "90", second.InterestPaid.String())
	require.Equal(t, "90", second.Loan.AccumulatedInterest.String())
	require.Equal(t, uint64(t0+2*month), second.Loan.LastAccumulatedTimestamp)
	require.Equal(t, "1300", f.balance(lenderB))
	require.Equal(t, "0", f.balance(lenderC))
	require.Equal(t, "13", f.balance(facilitator))
	require.Equal(t, "1318", f.balance(borrower))

	owed, err := f.uc.InterestOwed(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, "90", owed.String())

	// each buyout's terms bound the next one
	f.credit(t, lenderA, 5000)
	for _, tc := range []struct {
		in   LendInput
		want error
	}{
		{lendInput(lenderA, id, 501, 1500, month), domain.ErrRateTooHigh},
		{lendInput(lenderA, id, 500, 1500, month-1), domain.ErrDurationTooLow},
		{lendInput(lenderA, id, 500, 1330, month), domain.ErrAmountTooLow},
	} {
		_, err := f.uc.Lend(f.ctx, tc.in)
		require.ErrorIs(t, err, tc.want)
	}

	l, err := f.uc.GetLoan(f.ctx, id)
	require.NoError(t, err)
	require.Equal(t, uint16(500), l.PerAnnumInterestRate)
	require.Equal(t, uint32(month), l.DurationSeconds)
	require.Equal(t, "1331", l.LoanAmount.String())
	lender, _ := f.store.Repos().LendTickets.OwnerOf(f.ctx, id)
	require.Equal(t, lenderC, lender)
}

func TestBuyout_InterestWidth(t *testing.T) {
	maxU128 := u256.Max(domain.AmountBits)
	pastU128, err := maxU128.Add(u256.New(1))
	require.NoError(t, err)

	cases := []struct {
		name    string
		rate    uint16
		prior   u256.Int
		elapsed time.Duration
		want    error
	}{
		{name: "accrued equals 2^128-1", rate: 0, prior: maxU128},
		{name: "accrued equals 2^128", rate: 0, prior: pastU128, want: domain.ErrInterestOverflow},
		{name: "accrual overflows 256 bits", rate: 500, prior: u256.Max(256), elapsed: month * time.Second, want: domain.ErrInterestOverflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.createLoan(t, true, 1000, month)
			f.credit(t, lenderA, 1000)
			_, err := f.uc.Lend(f.ctx, lendInput(lenderA, id, 500, 1000, month))
			require.NoError(t, err)

			l, err := f.store.Repos().Loans.GetByID(f.ctx, id)
			require.NoError(t, err)
			l.PerAnnumInterestRate = tc.rate
			l.AccumulatedInterest = tc.prior
			require.NoError(t, f.store.Repos().Loans.Save(f.ctx, l))

			f.advance(tc.elapsed)
			f.store.Rail = railFunc(func(context.Context, common.Address, common.Address, common.Address, u256.Int) ([]byte, error) {
				return payment.ReturnData(true), nil
			})
			res, err := f.uc.Lend(f.ctx, lendInput(lenderB, id, tc.rate, 1100, month))
			if tc.want == nil {
				require.NoError(t, err)
				require.Equal(t, tc.prior.String(), res.Loan.AccumulatedInterest.String())
				return
			}
			require.ErrorIs(t, err, tc.want)
			require.Nil(t, res)
			lender, _ := f.store.Repos().LendTickets.OwnerOf(f.ctx, id)
			require.Equal(t, lenderA, lender)
		})
	}
}
