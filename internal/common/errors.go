// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Generation errors.
	ErrUnknownScenario = errors.New("unknown drift scenario")
	ErrEmptyPopulation = errors.New("empty population")

	// Pipeline errors.
	ErrPopulationTooSmall = errors.New("population too small for stratified split")
	ErrUnknownLabel       = errors.New("unknown risk label")

	// Inference errors.
	ErrInvalidInput      = errors.New("invalid feature input")
	ErrEmptyDistribution = errors.New("empty probability distribution")
	ErrEmptyStream       = errors.New("empty phenotype stream")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
