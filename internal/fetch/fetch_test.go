package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/cache"
)

func testFetcher() *HTTPFetcher {
	return NewHTTPFetcher(Options{
		RequestsPerSecond: 1000,
		Timeout:           2 * time.Second,
		Retries:           2,
		BaseBackoff:       time.Millisecond,
	})
}

func TestHTTPFetcherSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte("<html>PL</html>"))
	}))
	defer srv.Close()

	body, err := testFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>PL</html>", string(body))
}

func TestHTTPFetcherRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := testFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPFetcherGivesUpAsTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, int32(3), calls.Load(), "first attempt plus two retries")
}

func TestHTTPFetcherNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTransient))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedFetcher(t *testing.T) {
	var calls atomic.Int32
	origin := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte("body of " + url), nil
	})
	mem := cache.NewMemory()
	f := NewCachedFetcher(origin, mem, 0)

	for i := 0; i < 3; i++ {
		body, err := f.Fetch(context.Background(), "http://x/PL020001.HTM")
		require.NoError(t, err)
		assert.Equal(t, "body of http://x/PL020001.HTM", string(body))
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, mem.Len())
}

func TestCachedFetcherDoesNotStoreFailures(t *testing.T) {
	origin := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return nil, &StatusError{URL: url, Code: http.StatusNotFound}
	})
	mem := cache.NewMemory()
	_, err := NewCachedFetcher(origin, mem, time.Hour).Fetch(context.Background(), "http://x/TH020001.HTM")
	assert.True(t, IsNotFound(err))
	assert.Zero(t, mem.Len())
}

func TestPoolFetchAll(t *testing.T) {
	var inFlight, peak atomic.Int32
	f := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		if url == "missing" {
			return nil, &StatusError{URL: url, Code: http.StatusNotFound}
		}
		return []byte(url), nil
	})

	reqs := []Request{
		{Key: "PL", URL: "pl"}, {Key: "RO", URL: "ro"}, {Key: "TH", URL: "missing"},
		{Key: "TV", URL: "tv"}, {Key: "GS", URL: "gs"}, {Key: "API", URL: "api"},
	}
	results, err := NewPool(f, 2).FetchAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 6)
	assert.Equal(t, "pl", string(results["PL"].Body))
	assert.True(t, IsNotFound(results["TH"].Err))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		return []byte(url), nil
	})
	_, err := NewPool(f, 1).FetchAll(ctx, []Request{{Key: "PL", URL: "pl"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatusErrorClassification(t *testing.T) {
	assert.ErrorIs(t, &StatusError{Code: 429}, ErrTransient)
	assert.ErrorIs(t, &StatusError{Code: 500}, ErrTransient)
	assert.False(t, errors.Is(&StatusError{Code: 403}, ErrTransient))
}
