package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
)

// StatusTransportFailure is the synthetic status reported when no HTTP response arrived
const StatusTransportFailure = http.StatusInternalServerError

// Response is the outcome of one fetch. Transport failures are values too:
// StatusCode is StatusTransportFailure and Err holds the cause.
type Response struct {
	URL        string // final URL after redirects
	StatusCode int
	Body       []byte
	Header     http.Header
	Err        error
}

// Fetcher retrieves pages. Implementations must be safe for concurrent use and
// must never panic or return errors past Fetch: every failure becomes a Response.
type Fetcher interface {
	Fetch(ctx context.Context, url string) *Response
}

// Failure builds the synthetic failure response for url
func Failure(url string, err error) *Response {
	return &Response{URL: url, StatusCode: StatusTransportFailure, Err: err}
}

// OK reports whether the response is a plain success
func (r *Response) OK() bool {
	return r != nil && r.Err == nil && r.StatusCode == http.StatusOK
}

// Throttled reports an HTTP 429
func (r *Response) Throttled() bool {
	return r != nil && r.StatusCode == http.StatusTooManyRequests
}

// Transient reports a transport level failure worth retrying with less pressure:
// timeouts, refused or reset connections and truncated reads.
func (r *Response) Transient() bool {
	if r == nil || r.Err == nil {
		return false
	}
	return IsTransient(r.Err)
}

// IsTransient classifies an error returned by the HTTP stack. DNS failures are
// permanent unless the resolver itself timed out or reported a temporary error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
