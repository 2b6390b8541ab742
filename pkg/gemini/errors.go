package gemini

import (
	"errors"
	"fmt"
)

// Sentinel errors for inference calls.
var (
	// ErrMissingCredential indicates no API key is configured. It is raised
	// before any network I/O so a misconfigured deployment fails fast.
	ErrMissingCredential = errors.New("gemini api key is not configured")

	// ErrMalformedEnvelope indicates the response body did not contain the
	// expected candidates/content/parts structure.
	ErrMalformedEnvelope = errors.New("unexpected gemini response structure")

	// ErrInvalidResponse indicates the model's generated text could not be
	// parsed as JSON, even after code fence stripping.
	ErrInvalidResponse = errors.New("invalid json in model response")
)

// UpstreamError carries the status code and raw body of a non-success
// response from the generation endpoint for operator diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini api error %d: %s", e.Status, e.Body)
}
