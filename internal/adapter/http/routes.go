package http

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts every endpoint on e.
func RegisterRoutes(e *echo.Echo, h *Handler, loans *LoanHandler, adm *AdminHandler) {
	e.GET("/health", h.Health)

	e.POST("/loans", loans.CreateLoan)
	e.GET("/loans/:loan_id", loans.GetLoan)
	e.POST("/loans/:loan_id/close", loans.CloseLoan)
	e.POST("/loans/:loan_id/lend", loans.Lend)
	e.POST("/loans/:loan_id/repay", loans.Repay)
	e.POST("/loans/:loan_id/seize", loans.SeizeCollateral)
	e.GET("/loans/:loan_id/interest", loans.InterestOwed)
	e.GET("/loans/:loan_id/owed", loans.TotalOwed)
	e.GET("/loans/:loan_id/end", loans.LoanEnd)

	a := e.Group("/admin")
	a.GET("/settings", adm.Settings)
	a.PUT("/fees/origination", adm.SetOriginationFeeRate)
	a.PUT("/fees/improvement", adm.SetImprovementRate)
	a.POST("/fees/withdraw", adm.WithdrawOriginationFees)
	a.POST("/tickets", adm.BindTicketContracts)
	a.POST("/balances", adm.CreditBalance)
	a.GET("/balances/:asset/:account", adm.Balance)
}
