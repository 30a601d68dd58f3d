// Package roaderr defines the error taxonomy shared by every RoadPulse
// component. Narrow layers classify into a Code; outer HTTP handlers map
// Error to the {error, code, details?} envelope.
package roaderr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeBadRequest        Code = "BAD_REQUEST"
	CodeMissingFields     Code = "MISSING_FIELDS"
	CodeInvalidBBox       Code = "INVALID_BBOX"
	CodeInvalidCoords     Code = "INVALID_COORDS"
	CodeInvalidCorridor   Code = "INVALID_CORRIDOR"
	CodePayloadTooLarge   Code = "PAYLOAD_TOO_LARGE"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeGeocodeNoResults  Code = "GEOCODE_NO_RESULTS"
	CodeGeocodeError      Code = "GEOCODE_ERROR"
	CodeORSRateLimit      Code = "ORS_RATE_LIMIT"
	CodeRouteNotFound     Code = "ROUTE_NOT_FOUND"
	CodeCorridorBuildFail Code = "CORRIDOR_BUILD_FAILED"
	CodeQueryFailed       Code = "QUERY_FAILED"
	CodeFeedFetchError    Code = "FEED_FETCH_ERROR"
	CodeFeedParseError    Code = "FEED_PARSE_ERROR"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Error is the structured error type carried across every layer boundary.
// It satisfies the standard error interface and unwraps to Cause so
// errors.Is/errors.As still work against underlying causes (e.g. context
// deadline exceeded from an outbound HTTP call).
type Error struct {
	Code       Code
	Message    string
	Details    any
	RetryAfter int // seconds; 0 means unset
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) WithDetails(d any) *Error {
	e.Details = d
	return e
}

func (e *Error) WithRetryAfter(seconds int) *Error {
	e.RetryAfter = seconds
	return e
}

// HTTPStatus maps a Code to the response status the router emits. This is
// the narrowest reasonable single mapping point, following the teacher's
// HandleQuery convention of one status switch at the HTTP edge rather than
// threading http.StatusX constants through domain code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest, CodeMissingFields, CodeInvalidBBox, CodeInvalidCoords, CodeInvalidCorridor:
		return 400
	case CodePayloadTooLarge:
		return 413
	case CodeUnauthorized:
		return 401
	case CodeForbidden:
		return 403
	case CodeNotFound, CodeRouteNotFound, CodeGeocodeNoResults:
		return 404
	case CodeRateLimited, CodeORSRateLimit:
		return 429
	case CodeQueryFailed, CodeGeocodeError, CodeCorridorBuildFail, CodeFeedFetchError, CodeFeedParseError, CodeInternal:
		return 500
	default:
		return 500
	}
}

// As extracts an *Error from err, wrapping it as CodeInternal when err is
// not already one. Callers at the HTTP edge use this to guarantee every
// response follows the envelope shape even for unclassified errors.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeInternal, "internal error", err)
}
