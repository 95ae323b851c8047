package middleware

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind classifies provider failures into the categories callers act on.
type Kind string

const (
	KindAuthentication  Kind = "authentication"
	KindPermission      Kind = "permission"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindRangeMismatch   Kind = "range_mismatch"
	KindInvalidArgument Kind = "invalid_argument"
	KindRateLimit       Kind = "rate_limit"
	KindTransient       Kind = "transient"
	KindProvider        Kind = "provider"
)

// APIError is a classified provider error. The message stays
// agent-actionable; Kind gives aggregation and tests something stable
// to match on.
type APIError struct {
	Kind    Kind
	Code    int
	Message string
	cause   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// NewError builds a classified error that did not originate from a
// Google API response, such as a pre-flight validation failure.
func NewError(kind Kind, format string, args ...any) *APIError {
	return &APIError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the classification of err, or KindProvider when err
// carries none.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindProvider
}

// HandleGoogleAPIError translates Google API errors into classified,
// agent-actionable errors. The messages tell the AI what to do next,
// not the end user.
func HandleGoogleAPIError(err error) error {
	if err == nil {
		return nil
	}

	var googleErr *googleapi.Error
	if !errors.As(err, &googleErr) {
		// Transport-level failures (DNS, resets, timeouts) carry no HTTP code.
		return &APIError{Kind: KindTransient, Message: err.Error(), cause: err}
	}

	classified := func(kind Kind, format string, args ...any) *APIError {
		return &APIError{Kind: kind, Code: googleErr.Code, Message: fmt.Sprintf(format, args...), cause: err}
	}

	switch googleErr.Code {
	case 400:
		lower := strings.ToLower(googleErr.Message)
		switch {
		case strings.Contains(lower, "already exists"):
			return classified(KindConflict,
				"a resource with that name already exists — pick a different title. Detail: %s",
				googleErr.Message)
		case strings.Contains(lower, "range"), strings.Contains(lower, "grid"), strings.Contains(lower, "dimension"):
			return classified(KindRangeMismatch,
				"the range could not be applied — check the A1 notation and that data dimensions fit the target. Detail: %s",
				googleErr.Message)
		default:
			return classified(KindInvalidArgument,
				"bad request — check that all parameters are valid. Detail: %s", googleErr.Message)
		}
	case 401:
		return classified(KindAuthentication,
			"authentication failed or expired — verify the credential configuration and restart the server")
	case 403:
		if lower := strings.ToLower(googleErr.Message); strings.Contains(lower, "shar") {
			return classified(KindPermission,
				"sharing blocked by Workspace policy — the recipient may be outside the allowed domain. Detail: %s",
				googleErr.Message)
		}
		return classified(KindPermission,
			"permission denied — the authenticated identity lacks access to this resource or scope. Detail: %s",
			googleErr.Message)
	case 404:
		return classified(KindNotFound,
			"resource not found — verify the ID is correct and the authenticated identity can access it")
	case 409:
		return classified(KindConflict,
			"conflict — the resource changed underneath this call. Re-read it and retry. Detail: %s",
			googleErr.Message)
	case 429:
		return classified(KindRateLimit,
			"rate limit exceeded for this Google API — wait 30-60 seconds before retrying this tool call")
	case 500, 502, 503:
		return classified(KindTransient,
			"Google API server error (%d) — transient, retry after a few seconds. Detail: %s",
			googleErr.Code, googleErr.Message)
	default:
		return classified(KindProvider, "Google API error (%d): %s", googleErr.Code, googleErr.Message)
	}
}
