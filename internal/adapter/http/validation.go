package http

import (
	"github.com/go-playground/validator/v10"

	"nftlend-backend/internal/domain/loan"
	"nftlend-backend/pkg/u256"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// base-10 unsigned integers carried as strings
	_ = v.RegisterValidation("u256", func(fl validator.FieldLevel) bool {
		_, err := u256.FromDecimal(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("u128", func(fl validator.FieldLevel) bool {
		x, err := u256.FromDecimal(fl.Field().String())
		return err == nil && x.FitsBits(loan.AmountBits)
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "eth_addr":
			out = append(out, FieldError{Field: field, Message: "must be a 0x-prefixed 20-byte hex address"})
		case "u256":
			out = append(out, FieldError{Field: field, Message: "must be a base-10 unsigned 256-bit integer"})
		case "u128":
			out = append(out, FieldError{Field: field, Message: "must be a base-10 unsigned 128-bit integer"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
