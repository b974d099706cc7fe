package jellyseerr

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// retryableStatus are the upstream responses worth retrying at the transport
// layer: rate limiting and transient server errors.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// retryTransport retries 429/5xx responses with a short linear backoff. It
// sits below the client so every call, search and request alike, gets the
// same treatment. The final attempt's response is returned as-is so callers
// still see the status and body.
type retryTransport struct {
	base     http.RoundTripper
	attempts int
	delay    time.Duration
}

func newRetryTransport(base http.RoundTripper) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{base: base, attempts: 3, delay: time.Second}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := t.base.RoundTrip(req)
		if err != nil || !retryableStatus[resp.StatusCode] || attempt >= t.attempts {
			return resp, err
		}

		// Drain before retrying so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if req.GetBody != nil {
			body, berr := req.GetBody()
			if berr != nil {
				return nil, fmt.Errorf("rewind request body for retry: %w", berr)
			}
			req.Body = body
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(time.Duration(attempt) * t.delay):
		}
	}
}
