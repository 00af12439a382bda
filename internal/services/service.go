package services

import (
	"context"

	"github.com/tbckr/nsolver/internal/apperr"
	"github.com/tbckr/nsolver/internal/pap"
)

// ErrInvalidInput is re-exported from apperr so callers can use
// errors.Is(err, services.ErrInvalidInput) uniformly.
var ErrInvalidInput = apperr.ErrInvalidInput

// ErrRequestFailed is re-exported from apperr.
var ErrRequestFailed = apperr.ErrRequestFailed

// ErrPAPBlocked is re-exported from apperr.
var ErrPAPBlocked = apperr.ErrPAPBlocked

// Result is the common interface every service's Run output must satisfy.
type Result interface {
	IsEmpty() bool
}

// Service is the contract the worker pool drives.
type Service interface {
	Name() string
	PAP() pap.Level
	Run(ctx context.Context, input string) (Result, error)
	AggregateResults(results []Result) Result
}
