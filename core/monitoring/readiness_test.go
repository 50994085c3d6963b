package monitoring

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refusingTransport fails the first n round trips with connection refused
type refusingTransport struct {
	n     int32
	calls int32
	next  http.RoundTripper
}

func (rt *refusingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if atomic.AddInt32(&rt.calls, 1) <= rt.n {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}
	return rt.next.RoundTrip(req)
}

func fastPolicy(maxAttempts int) PollPolicy {
	return PollPolicy{Interval: 5 * time.Millisecond, MaxAttempts: maxAttempts}
}

func TestWaitReady_AnyStatusCountsAsReady(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		err := NewReadinessPoller(srv.URL, srv.Client(), fastPolicy(1)).WaitReady(context.Background())

		assert.NoError(t, err, "status %d", status)
		srv.Close()
	}
}

func TestWaitReady_RetriesUntilEngineAnswers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	rt := &refusingTransport{n: 4, next: srv.Client().Transport}
	client := &http.Client{Transport: rt}

	err := NewReadinessPoller(srv.URL, client, fastPolicy(0)).WaitReady(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&rt.calls))
}

func TestWaitReady_BoundedPolicyGivesUp(t *testing.T) {
	rt := &refusingTransport{n: 1 << 30}
	client := &http.Client{Transport: rt}

	err := NewReadinessPoller("http://127.0.0.1:1/", client, fastPolicy(3)).WaitReady(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.Equal(t, int32(3), atomic.LoadInt32(&rt.calls))
}

func TestWaitReady_UnboundedStopsOnCancel(t *testing.T) {
	rt := &refusingTransport{n: 1 << 30}
	client := &http.Client{Transport: rt}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewReadinessPoller("http://127.0.0.1:1/", client, fastPolicy(0)).WaitReady(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, atomic.LoadInt32(&rt.calls), int32(1))
}

func TestWaitReady_InvalidURL(t *testing.T) {
	err := NewReadinessPoller("://bad", nil, fastPolicy(0)).WaitReady(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotReady))
}

func TestNewReadinessPoller_Defaults(t *testing.T) {
	p := NewReadinessPoller("http://127.0.0.1:5005/", nil, PollPolicy{})
	assert.Equal(t, time.Second, p.policy.Interval)
	assert.Equal(t, 0, p.policy.MaxAttempts)
	assert.NotNil(t, p.client)
}

func TestWaitReady_ReusesRequestAcrossAttempts(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
	}))
	defer srv.Close()

	rt := &refusingTransport{n: 2, next: srv.Client().Transport}

	err := NewReadinessPoller(srv.URL+"/health", &http.Client{Transport: rt}, fastPolicy(0)).WaitReady(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&rt.calls))
	assert.Equal(t, []string{"GET /health"}, seen)
}
