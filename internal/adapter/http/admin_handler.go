package http

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"

	"nftlend-backend/internal/usecase/admin"
	"nftlend-backend/pkg/u256"
)

type AdminHandler struct{ uc *admin.Usecase }

func NewAdminHandler(uc *admin.Usecase) *AdminHandler { return &AdminHandler{uc: uc} }

type rateReq struct {
	Rate string `json:"rate" validate:"required,u256"`
}

type bindTicketsReq struct {
	BorrowTicketContract string `json:"borrow_ticket_contract" validate:"omitempty,eth_addr"`
	LendTicketContract   string `json:"lend_ticket_contract"   validate:"omitempty,eth_addr"`
}

type withdrawReq struct {
	Asset  string `json:"asset"  validate:"required,eth_addr"`
	Amount string `json:"amount" validate:"required,u256"`
	To     string `json:"to"     validate:"required,eth_addr"`
}

type creditReq struct {
	Asset   string `json:"asset"   validate:"required,eth_addr"`
	Account string `json:"account" validate:"required,eth_addr"`
	Amount  string `json:"amount"  validate:"required,u256"`
}

func (h *AdminHandler) Settings(c echo.Context) error {
	dto, err := h.uc.Settings(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) SetOriginationFeeRate(c echo.Context) error {
	return h.setRate(c, h.uc.SetOriginationFeeRate)
}

func (h *AdminHandler) SetImprovementRate(c echo.Context) error {
	return h.setRate(c, h.uc.SetImprovementRate)
}

func (h *AdminHandler) BindTicketContracts(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req bindTicketsReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	var in admin.BindTicketsInput
	if req.BorrowTicketContract != "" {
		a := common.HexToAddress(req.BorrowTicketContract)
		in.Borrow = &a
	}
	if req.LendTicketContract != "" {
		a := common.HexToAddress(req.LendTicketContract)
		in.Lend = &a
	}
	dto, err := h.uc.BindTicketContracts(c.Request().Context(), caller, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) WithdrawOriginationFees(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req withdrawReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dto, err := h.uc.WithdrawOriginationFees(c.Request().Context(), caller, admin.WithdrawInput{
		Asset:  common.HexToAddress(req.Asset),
		Amount: u256.MustDecimal(req.Amount),
		To:     common.HexToAddress(req.To),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) CreditBalance(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req creditReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dto, err := h.uc.CreditBalance(c.Request().Context(), caller, admin.CreditInput{
		Asset:   common.HexToAddress(req.Asset),
		Account: common.HexToAddress(req.Account),
		Amount:  u256.MustDecimal(req.Amount),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Balance(c echo.Context) error {
	asset, account := c.Param("asset"), c.Param("account")
	if !common.IsHexAddress(asset) || !common.IsHexAddress(account) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "asset and account must be hex addresses"})
	}
	dto, err := h.uc.Balance(c.Request().Context(), common.HexToAddress(asset), common.HexToAddress(account))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type rateFunc func(ctx context.Context, caller common.Address, rate u256.Int) (*admin.SettingsDTO, error)

func (h *AdminHandler) setRate(c echo.Context, fn rateFunc) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req rateReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dto, err := fn(c.Request().Context(), caller, u256.MustDecimal(req.Rate))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
