package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"

	"nftlend-backend/internal/adapter/middleware"
	"nftlend-backend/internal/usecase/loan"
	"nftlend-backend/pkg/u256"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	CollateralContract      string `json:"collateral_contract"         validate:"required,eth_addr"`
	CollateralTokenID       string `json:"collateral_token_id"         validate:"required,u256"`
	MaxPerAnnumInterestRate uint16 `json:"max_per_annum_interest_rate"`
	AllowLoanAmountIncrease bool   `json:"allow_loan_amount_increase"`
	MinLoanAmount           string `json:"min_loan_amount"             validate:"required,u128"`
	LoanAssetContract       string `json:"loan_asset_contract"         validate:"required,eth_addr"`
	MinDurationSeconds      uint32 `json:"min_duration_seconds"`
	// defaults to the caller
	BorrowTicketRecipient string `json:"borrow_ticket_recipient" validate:"omitempty,eth_addr"`
}

type lendReq struct {
	InterestRate        uint16 `json:"interest_rate"`
	Amount              string `json:"amount"                validate:"required,u128"`
	DurationSeconds     uint32 `json:"duration_seconds"`
	LendTicketRecipient string `json:"lend_ticket_recipient" validate:"omitempty,eth_addr"`
}

type collateralReq struct {
	CollateralRecipient string `json:"collateral_recipient" validate:"omitempty,eth_addr"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req createLoanReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dto, err := h.uc.CreateLoan(c.Request().Context(), loan.CreateLoanInput{
		Caller:                  caller,
		CollateralTokenID:       u256.MustDecimal(req.CollateralTokenID),
		CollateralContract:      common.HexToAddress(req.CollateralContract),
		MaxPerAnnumInterestRate: req.MaxPerAnnumInterestRate,
		AllowLoanAmountIncrease: req.AllowLoanAmountIncrease,
		MinLoanAmount:           u256.MustDecimal(req.MinLoanAmount),
		LoanAssetContract:       common.HexToAddress(req.LoanAssetContract),
		MinDurationSeconds:      req.MinDurationSeconds,
		BorrowTicketRecipient:   addressOr(req.BorrowTicketRecipient, caller),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) CloseLoan(c echo.Context) error {
	return h.collateralAction(c, h.uc.CloseLoan)
}

func (h *LoanHandler) SeizeCollateral(c echo.Context) error {
	return h.collateralAction(c, h.uc.SeizeCollateral)
}

func (h *LoanHandler) Lend(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	loanID, err := loanIDFrom(c)
	if err != nil {
		return err
	}
	var req lendReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.uc.Lend(c.Request().Context(), loan.LendInput{
		Caller:              caller,
		LoanID:              loanID,
		InterestRate:        req.InterestRate,
		Amount:              u256.MustDecimal(req.Amount),
		DurationSeconds:     req.DurationSeconds,
		LendTicketRecipient: addressOr(req.LendTicketRecipient, caller),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) Repay(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	loanID, err := loanIDFrom(c)
	if err != nil {
		return err
	}
	dto, err := h.uc.RepayAndCloseLoan(c.Request().Context(), caller, loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, err := loanIDFrom(c)
	if err != nil {
		return err
	}
	dto, err := h.uc.GetLoan(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) InterestOwed(c echo.Context) error {
	return h.amountQuery(c, "interest_owed", h.uc.InterestOwed)
}

func (h *LoanHandler) TotalOwed(c echo.Context) error {
	return h.amountQuery(c, "total_owed", h.uc.TotalOwed)
}

func (h *LoanHandler) LoanEnd(c echo.Context) error {
	loanID, err := loanIDFrom(c)
	if err != nil {
		return err
	}
	end, err := h.uc.LoanEndSeconds(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]uint64{"loan_id": loanID, "end_seconds": end})
}

type collateralFunc func(ctx context.Context, caller common.Address, loanID uint64, recipient common.Address) (*loan.LoanDTO, error)

func (h *LoanHandler) collateralAction(c echo.Context, fn collateralFunc) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	loanID, err := loanIDFrom(c)
	if err != nil {
		return err
	}
	var req collateralReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dto, err := fn(c.Request().Context(), caller, loanID, addressOr(req.CollateralRecipient, caller))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type amountFunc func(ctx context.Context, loanID uint64) (u256.Int, error)

func (h *LoanHandler) amountQuery(c echo.Context, field string, fn amountFunc) error {
	loanID, err := loanIDFrom(c)
	if err != nil {
		return err
	}
	amount, err := fn(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": loanID, field: amount})
}

// ---- request plumbing ----

func callerFrom(c echo.Context) (common.Address, error) {
	a, err := middleware.ParseAccount(c.Request().Header.Get(middleware.HeaderAccount))
	if err != nil {
		return common.Address{}, echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	}
	return a, nil
}

func loanIDFrom(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "loan_id must be a positive integer"})
	}
	return id, nil
}

// Bind + validate body payload JSON
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return nil
}

func addressOr(raw string, fallback common.Address) common.Address {
	if raw == "" {
		return fallback
	}
	return common.HexToAddress(raw)
}
