package analysis

import (
	"errors"
	"net/http"

	"github.com/vigil-health/vigil/pkg/gemini"
)

// Domain errors for analysis operations.
var (
	ErrForbidden     = errors.New("only organization administrators may run analyses")
	ErrNoEmployees   = errors.New("no employees found for your organization")
	ErrNotFound      = errors.New("analysis not found")
	ErrInvalidResult = errors.New("model response violates the scoring contract")

	// ErrUpstream is the opaque message surfaced to callers for upstream and
	// contract failures; the underlying detail goes to operator logs only.
	ErrUpstream = errors.New("analysis service is temporarily unavailable")
)

// MapHTTPStatus maps analysis domain and inference errors to HTTP status codes.
// Upstream and contract failures are bad-gateway class: the remote dependency
// misbehaved, not the caller.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrNoEmployees) || errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, gemini.ErrMissingCredential) {
		return http.StatusInternalServerError
	}

	var upstream *gemini.UpstreamError
	if errors.As(err, &upstream) ||
		errors.Is(err, gemini.ErrMalformedEnvelope) ||
		errors.Is(err, gemini.ErrInvalidResponse) ||
		errors.Is(err, ErrInvalidResult) ||
		errors.Is(err, ErrUpstream) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
