package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"nftlend-backend/internal/domain/custody"
	"nftlend-backend/internal/domain/fee"
	"nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/domain/payment"
	"nftlend-backend/internal/domain/ticket"
)

// Map domain errors → HTTP codes
func statusFor(err error) int {
	switch loan.Kind(err) {
	case loan.KindValidation:
		return http.StatusUnprocessableEntity
	case loan.KindAuthorization:
		return http.StatusForbidden
	case loan.KindNotFound:
		return http.StatusNotFound
	case loan.KindState, loan.KindTerms:
		return http.StatusConflict
	}
	switch {
	case errors.Is(err, fee.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, fee.ErrAlreadyBound):
		return http.StatusConflict
	case errors.Is(err, fee.ErrFeeTooHigh),
		errors.Is(err, fee.ErrImprovementZero),
		errors.Is(err, fee.ErrZeroAddress),
		errors.Is(err, fee.ErrNothingToBind),
		errors.Is(err, payment.ErrTransferFailed),
		errors.Is(err, payment.ErrZeroRecipient),
		errors.Is(err, custody.ErrNotOwner),
		errors.Is(err, custody.ErrNotHeld),
		errors.Is(err, custody.ErrZeroTarget),
		errors.Is(err, ticket.ErrZeroRecipient):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(status, ErrorResponse{Error: msg})
}
