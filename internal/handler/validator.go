package handler

import (
	"errors"
	"strings"

	"gig-marketplace/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs validate struct tags into echo's c.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.BadInput("invalid request", err)
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fe.Field() + " failed " + fe.Tag()
	}
	return apperr.BadInput("invalid request: "+strings.Join(msgs, ", "), nil)
}

// bindAndValidate decodes the request into req and checks its tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.BadInput("malformed request body", err)
	}
	return c.Validate(req)
}
