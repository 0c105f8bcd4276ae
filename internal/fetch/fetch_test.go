package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollyFetcherSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "weaver-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		fmt.Fprint(w, "<html><body>hello</body></html>")
	}))
	defer srv.Close()

	f := NewCollyFetcher(Options{
		Timeout:   2 * time.Second,
		UserAgent: "weaver-test",
		Headers:   map[string]string{"X-Test": "yes"},
	})

	resp := f.Fetch(context.Background(), srv.URL+"/page")
	require.NotNil(t, resp)
	assert.True(t, resp.OK())
	assert.NoError(t, resp.Err)
	assert.Contains(t, string(resp.Body), "hello")
}

func TestCollyFetcherRevisitsSameURL(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := NewCollyFetcher(Options{Timeout: 2 * time.Second})
	assert.True(t, f.Fetch(context.Background(), srv.URL).OK())
	assert.True(t, f.Fetch(context.Background(), srv.URL).OK())
	assert.Equal(t, 2, hits)
}

func TestCollyFetcherReportsHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow-down":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewCollyFetcher(Options{Timeout: 2 * time.Second})

	resp := f.Fetch(context.Background(), srv.URL+"/slow-down")
	assert.True(t, resp.Throttled())
	assert.False(t, resp.Transient())

	resp = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
}

func TestCollyFetcherTimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewCollyFetcher(Options{Timeout: 50 * time.Millisecond})
	resp := f.Fetch(context.Background(), srv.URL)

	require.NotNil(t, resp)
	assert.Equal(t, StatusTransportFailure, resp.StatusCode)
	assert.Error(t, resp.Err)
	assert.True(t, resp.Transient())
}

func TestCollyFetcherCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewCollyFetcher(Options{Timeout: time.Second})
	resp := f.Fetch(ctx, "http://127.0.0.1:1/")
	assert.Equal(t, StatusTransportFailure, resp.StatusCode)
	assert.ErrorIs(t, resp.Err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(fmt.Errorf("read: %w", io.ErrUnexpectedEOF)))
	assert.True(t, IsTransient(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
	assert.False(t, IsTransient(errors.New("bad url")))
	assert.False(t, IsTransient(&net.OpError{Op: "dial", Net: "tcp",
		Err: &net.DNSError{Err: "no such host", Name: "dead.example", IsNotFound: true}}))
	assert.True(t, IsTransient(&net.OpError{Op: "dial", Net: "tcp",
		Err: &net.DNSError{Err: "server misbehaving", Name: "slow.example", IsTemporary: true}}))
	assert.False(t, IsTransient(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("network is unreachable")}))
	assert.False(t, IsTransient(nil))
}

func TestFailure(t *testing.T) {
	resp := Failure("http://x", errors.New("boom"))
	assert.Equal(t, StatusTransportFailure, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.False(t, resp.Throttled())
}
