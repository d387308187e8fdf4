package ai

import "errors"

var (
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrEmptyResponse is returned when the model answered without any choice.
	ErrEmptyResponse = errors.New("ai returned no advice")
	// ErrNothingToAdvise is returned for checks without diagnostics.
	ErrNothingToAdvise = errors.New("check has no diagnostics")
)
