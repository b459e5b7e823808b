package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeFetchFailed        = "FETCH_FAILED"
	ErrCodeHTTPStatus         = "HTTP_STATUS"
	ErrCodeBotBlocked         = "BOT_BLOCKED"
	ErrCodeUnsupportedContent = "UNSUPPORTED_CONTENT"
	ErrCodeTimeout            = "SCRAPE_TIMEOUT"
	ErrCodeCanceled           = "CANCELED"
	ErrCodeRobotsDisallowed   = "ROBOTS_DISALLOWED"
	ErrCodeNoContent          = "NO_CONTENT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrNoContent reports a crawl that finished without a fatal error but
// produced nothing worth storing.
var ErrNoContent = NewHarvestError(ErrCodeNoContent, "no content could be extracted", nil)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HarvestError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type HarvestError struct {
	Code       string
	Message    string
	URL        string
	StatusCode int
	Err        error // wrapped original error
}

func (e *HarvestError) Error() string {
	msg := e.Code + ": " + e.Message
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *HarvestError) Unwrap() error {
	return e.Err
}

// Is matches another *HarvestError by code, so errors.Is(err, ErrNoContent)
// holds for any NO_CONTENT error.
func (e *HarvestError) Is(target error) bool {
	t, ok := target.(*HarvestError)
	return ok && t.Code == e.Code
}

// NewHarvestError creates a new HarvestError.
func NewHarvestError(code, message string, err error) *HarvestError {
	return &HarvestError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *HarvestError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first HarvestError in err's chain,
// or ErrCodeInternal.
func CodeOf(err error) string {
	var he *HarvestError
	if errors.As(err, &he) {
		return he.Code
	}
	return ErrCodeInternal
}
