package geoconv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Linear stand-in for the projection, invertible so round trips can be checked.
const (
	metersPerDegreeX = 111319.49
	metersPerDegreeY = 110574.27
)

type stubService struct {
	mu        sync.Mutex
	requests  []int // points per request
	failAfter int   // fail the request with this index (1-based), 0 = never
	dropPoint bool
}

func (s *stubService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	coords := strings.Split(r.URL.Query().Get("coords"), ";")
	s.requests = append(s.requests, len(coords))
	n := len(s.requests)
	s.mu.Unlock()

	if s.failAfter != 0 && n == s.failAfter {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 24, "message": "param error: coords format error"})
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if r.URL.Query().Get("ak") == "" || from == to {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	type xy struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	result := make([]xy, 0, len(coords))
	for _, c := range coords {
		parts := strings.Split(c, ",")
		x, _ := strconv.ParseFloat(parts[0], 64)
		y, _ := strconv.ParseFloat(parts[1], 64)
		if from == coordGeographic {
			result = append(result, xy{x * metersPerDegreeX, y * metersPerDegreeY})
		} else {
			result = append(result, xy{x / metersPerDegreeX, y / metersPerDegreeY})
		}
	}
	if s.dropPoint {
		result = result[:len(result)-1]
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": 0, "result": result})
}

type countingLimiter struct {
	calls atomic.Int32
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.calls.Add(1)
	return ctx.Err()
}

func samplePoints(n int) []orb.Point {
	points := make([]orb.Point, n)
	for i := range points {
		points[i] = orb.Point{103.938 + float64(i)*0.0001, 30.593 + float64(i)*0.00005}
	}
	return points
}

func newTestClient(t *testing.T, svc http.Handler, opts ...Option) *Client {
	server := httptest.NewServer(svc)
	t.Cleanup(server.Close)
	opts = append([]Option{WithSpacing(0)}, opts...)
	return NewClient(server.URL, "test-ak", opts...)
}

func TestToProjectedChunksInOrder(t *testing.T) {
	svc := &stubService{}
	limiter := &countingLimiter{}
	client := newTestClient(t, svc, WithLimiter(limiter))

	points := samplePoints(250)
	projected, err := client.ToProjected(context.Background(), points)
	require.NoError(t, err)
	require.Len(t, projected, 250)

	assert.Equal(t, []int{100, 100, 50}, svc.requests)
	assert.EqualValues(t, 3, limiter.calls.Load())

	for i, p := range projected {
		assert.InDelta(t, points[i][0]*metersPerDegreeX, p[0], 1e-6, "point %d", i)
		assert.InDelta(t, points[i][1]*metersPerDegreeY, p[1], 1e-6, "point %d", i)
	}
}

func TestRoundTrip(t *testing.T) {
	client := newTestClient(t, &stubService{})

	for _, n := range []int{1, 2, 99, 100, 101, 230} {
		t.Run(fmt.Sprintf("%d points", n), func(t *testing.T) {
			points := samplePoints(n)

			projected, err := client.ToProjected(context.Background(), points)
			require.NoError(t, err)
			back, err := client.ToGeographic(context.Background(), projected)
			require.NoError(t, err)

			require.Len(t, back, n)
			for i := range points {
				assert.InDelta(t, points[i][0], back[i][0], 1e-9)
				assert.InDelta(t, points[i][1], back[i][1], 1e-9)
			}
		})
	}
}

func TestEmptyInput(t *testing.T) {
	svc := &stubService{}
	client := newTestClient(t, svc)

	out, err := client.ToProjected(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, svc.requests)
}

func TestFailedChunkAbortsCall(t *testing.T) {
	svc := &stubService{failAfter: 2}
	client := newTestClient(t, svc)

	out, err := client.ToProjected(context.Background(), samplePoints(250))
	assert.Nil(t, out)

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 1, svcErr.Chunk)
	assert.Equal(t, 24, svcErr.Code)
	assert.Contains(t, svcErr.Message, "coords format error")

	// no request is made after the failing chunk
	assert.Equal(t, []int{100, 100}, svc.requests)
}

func TestShortResultIsAnError(t *testing.T) {
	client := newTestClient(t, &stubService{dropPoint: true})

	_, err := client.ToGeographic(context.Background(), samplePoints(10))
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Contains(t, svcErr.Message, "expected 10 points, got 9")
}

func TestHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "ak", WithSpacing(0))
	_, err := client.ToProjected(context.Background(), samplePoints(3))

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.Status)
	assert.Contains(t, err.Error(), "http 503")
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, "ak", WithSpacing(0), WithTimeout(50*time.Millisecond))
	_, err := client.ToProjected(context.Background(), samplePoints(3))

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 0, svcErr.Status)
	assert.NotNil(t, svcErr.Unwrap())
}

func TestSpacingBetweenChunks(t *testing.T) {
	client := newTestClient(t, &stubService{}, WithSpacing(30*time.Millisecond), WithBatchSize(10))

	start := time.Now()
	_, err := client.ToProjected(context.Background(), samplePoints(30))
	require.NoError(t, err)

	// three chunks, the first admitted immediately
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestCancelledContext(t *testing.T) {
	client := newTestClient(t, &stubService{}, WithLimiter(&countingLimiter{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ToProjected(ctx, samplePoints(5))
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithBatchSizeBounds(t *testing.T) {
	assert.Equal(t, MaxBatchSize, NewClient("", "", WithBatchSize(500)).batchSize)
	assert.Equal(t, MaxBatchSize, NewClient("", "", WithBatchSize(0)).batchSize)
	assert.Equal(t, 25, NewClient("", "", WithBatchSize(25)).batchSize)
	assert.Equal(t, DefaultBaseURL, NewClient("", "").baseURL)
}

func TestWithTimeoutKeepsCustomHTTPClient(t *testing.T) {
	transport := &http.Transport{}
	custom := &http.Client{Transport: transport}

	for name, opts := range map[string][]Option{
		"timeout first": {WithTimeout(2 * time.Second), WithHTTPClient(custom)},
		"client first":  {WithHTTPClient(custom), WithTimeout(2 * time.Second)},
	} {
		t.Run(name, func(t *testing.T) {
			client := NewClient("", "", opts...)
			assert.Same(t, transport, client.httpClient.Transport)
			assert.Equal(t, 2*time.Second, client.httpClient.Timeout)
		})
	}

	// the caller's client is not modified
	assert.Zero(t, custom.Timeout)
	assert.Equal(t, DefaultTimeout, NewClient("", "").httpClient.Timeout)
}
