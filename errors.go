package compfit

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below unwrap to these so callers can
// match with errors.Is.
var (
	// ErrMissingInput is returned when a quantity required by the requested
	// computation was never supplied.
	ErrMissingInput = errors.New("missing input")

	// ErrDomain is returned when a formula is evaluated outside its valid
	// domain (zero denominator, log of a non-positive value, W_f ∉ (0,1)).
	ErrDomain = errors.New("domain error")
)

// MissingInputError reports which input a computation needed.
type MissingInputError struct {
	Op    string // Computation that was requested
	Input string // Name of the absent quantity
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: %s is required", e.Op, e.Input)
}

func (e *MissingInputError) Unwrap() error { return ErrMissingInput }

// DomainError reports an evaluation outside a formula's valid domain.
//
// Inside the objective function a DomainError is converted into the
// sentinel penalty for that point. Every other error aborts the fit.
type DomainError struct {
	Op       string  // Computation that failed
	Quantity string  // Offending quantity
	Value    float64 // Its value
	Reason   string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s=%g: %s", e.Op, e.Quantity, e.Value, e.Reason)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

func domainErr(op, quantity string, value float64, reason string) error {
	return &DomainError{Op: op, Quantity: quantity, Value: value, Reason: reason}
}

// checkDenominator rejects zero and non-finite denominators.
func checkDenominator(op, quantity string, d float64) error {
	if d == 0 || isNonFinite(d) {
		return domainErr(op, quantity, d, "zero or non-finite denominator")
	}
	return nil
}
