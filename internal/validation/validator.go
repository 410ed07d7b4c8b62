// Package validation gates report requests: symbol existence, the date range
// policy and email syntax.
package validation

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
	"github.com/ahmethakanbesel/stockmailer/internal/report"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SymbolChecker reports whether a symbol is listed. Lookup failures must be
// reported as not listed.
type SymbolChecker interface {
	Exists(ctx context.Context, symbol string) bool
}

// Input is a request as submitted, before any parsing. Dates may be
// time.Time values or text.
type Input struct {
	Symbol    string
	StartDate any
	EndDate   any
	Email     string
}

// RequestValidator validates every field of a request and reports all
// rejected fields at once.
type RequestValidator struct {
	symbols  SymbolChecker
	dates    *DateRangePolicy
	validate *validator.Validate
}

func NewRequestValidator(symbols SymbolChecker, dates *DateRangePolicy) *RequestValidator {
	v := validator.New()
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return &RequestValidator{symbols: symbols, dates: dates, validate: v}
}

// Dates returns the date policy used by the validator.
func (v *RequestValidator) Dates() *DateRangePolicy { return v.dates }

// ValidEmail reports whether email has the basic local@domain.tld shape.
func (v *RequestValidator) ValidEmail(email string) bool {
	return v.validate.Var(email, "required,basic_email") == nil
}

// ValidSymbol reports whether symbol is non-empty and listed.
func (v *RequestValidator) ValidSymbol(ctx context.Context, symbol string) bool {
	if strings.TrimSpace(symbol) == "" {
		return false
	}
	return v.symbols.Exists(ctx, symbol)
}

// Check validates in. The symbol lookup runs concurrently with the local
// checks. A rejection is a BadRequest AppError whose fields map field names
// to reasons.
func (v *RequestValidator) Check(ctx context.Context, in Input) error {
	var symbolErr, startErr, endErr, emailErr error

	var g errgroup.Group
	g.Go(func() error {
		if !v.ValidSymbol(ctx, in.Symbol) {
			symbolErr = &FieldError{Field: "symbol", Reason: ReasonInvalidSymbol}
		}
		return nil
	})
	g.Go(func() error {
		startErr = v.dates.ValidateStart(in.StartDate, in.EndDate)
		endErr = v.dates.ValidateEnd(in.EndDate, in.StartDate)
		if !v.ValidEmail(in.Email) {
			emailErr = &FieldError{Field: "email", Reason: ReasonInvalidEmail}
		}
		return nil
	})
	_ = g.Wait()

	fields := make(map[string]string)
	for _, err := range []error{symbolErr, startErr, endErr, emailErr} {
		var fe *FieldError
		if errors.As(err, &fe) {
			fields[fe.Field] = string(fe.Reason)
		}
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

// Validate implements report.Validator.
func (v *RequestValidator) Validate(ctx context.Context, req report.Request) error {
	return v.Check(ctx, Input{
		Symbol:    req.Symbol,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Email:     req.Email,
	})
}
