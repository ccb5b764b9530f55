package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/scrypster/castgraph/internal/retry"
)

// Provider errors are classified here, at the API-client boundary, into
// the retry package's closed set of failure classes. The retry policy then
// dispatches on the wrapped type; no substring matching happens outside
// this file, and the few body markers below exist only because providers
// hide quota errors behind generic status codes.

// quotaMarkers are response-body fragments that identify a quota failure
// when the status code alone is ambiguous.
var quotaMarkers = []string{
	"quota",
	"rate limit",
	"rate_limit",
	"resource_exhausted",
	"billing",
}

// statusError translates a non-200 provider response into a classified
// error. 429 and quota-marked bodies are terminal quota failures; 408 and
// 5xx are transient; anything else is terminal as-is.
func statusError(provider string, status int, body string) error {
	err := fmt.Errorf("%s returned status %d: %s", provider, status, truncate(body, 512))

	if status == http.StatusTooManyRequests || hasQuotaMarker(body) {
		return retry.Quota(err)
	}
	if status == http.StatusRequestTimeout || status >= 500 {
		return retry.Transient(err)
	}
	return err
}

// transportError translates a failed HTTP round trip. Timeouts and
// connection failures are transient; context cancellation propagates
// unclassified so callers can tell deliberate shutdown from flakiness.
func transportError(provider string, err error) error {
	wrapped := fmt.Errorf("%s request failed: %w", provider, err)

	if errors.Is(err, context.Canceled) {
		return wrapped
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return retry.Transient(wrapped)
	}

	// http.Client wraps dial and read errors in *url.Error, which
	// implements net.Error, so most connection failures land above. The
	// remainder (malformed URLs and the like) are terminal.
	return wrapped
}

func hasQuotaMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
