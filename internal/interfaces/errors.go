package interfaces

import "errors"

var (
	// ErrDataUnavailable marks a candle or text provider that could not be reached.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrPeriodTooLarge marks a provider rejecting the requested candle window.
	ErrPeriodTooLarge = errors.New("requested period too large")
	// ErrModelUnavailable marks a classifier that failed to load or answer.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInsufficientHistory marks a series too short for the requested periods.
	ErrInsufficientHistory = errors.New("insufficient history")
)
