// Package geoconv converts points between geographic BD-09 coordinates and the
// metric BD-09MC system through the remote geoconv service.
package geoconv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/time/rate"

	"roadnet.roadmap.org/internal/logging"
)

const (
	DefaultBaseURL = "https://api.map.baidu.com/geoconv/v1/"

	// MaxBatchSize is the upstream limit on points per request.
	MaxBatchSize = 100

	DefaultSpacing = 100 * time.Millisecond
	DefaultTimeout = 10 * time.Second

	coordGeographic = "5" // BD-09 lng/lat
	coordProjected  = "6" // BD-09MC meters
)

// Limiter gates outgoing requests. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// ServiceError is returned when the transform service fails a request. The
// whole call fails; no partial results are returned.
type ServiceError struct {
	Op      string
	Chunk   int
	Status  int // HTTP status, 0 when the request never completed
	Code    int // service status field
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "geoconv %s chunk %d failed", e.Op, e.Chunk)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": http %d", e.Status)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, ": status %d", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL    string
	ak         string
	httpClient *http.Client
	limiter    Limiter
	batchSize  int
	timeout    time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter replaces the default fixed-spacing limiter.
func WithLimiter(l Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithSpacing sets the minimum time between two requests.
func WithSpacing(d time.Duration) Option {
	return func(c *Client) {
		c.limiter = NewSpacingLimiter(d)
	}
}

// WithTimeout bounds each request. It applies to the client given with
// WithHTTPClient too, in either option order, without modifying it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithBatchSize lowers the chunk size. Values outside (0, MaxBatchSize] are ignored.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= MaxBatchSize {
			c.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewSpacingLimiter returns a token bucket with burst 1 that admits one request per d.
func NewSpacingLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

func NewClient(baseURL, ak string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		ak:         ak,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    NewSpacingLimiter(DefaultSpacing),
		batchSize:  MaxBatchSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	c.logger = logging.OrDefault(c.logger).With(slog.String("component", "geoconv"))
	return c
}

// ToProjected converts BD-09 lng/lat points to BD-09MC meters, preserving order.
func (c *Client) ToProjected(ctx context.Context, points []orb.Point) ([]orb.Point, error) {
	return c.convert(ctx, "to_projected", points, coordGeographic, coordProjected)
}

// ToGeographic converts BD-09MC points back to BD-09 lng/lat, preserving order.
func (c *Client) ToGeographic(ctx context.Context, points []orb.Point) ([]orb.Point, error) {
	return c.convert(ctx, "to_geographic", points, coordProjected, coordGeographic)
}

type convResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"result"`
}

func (c *Client) convert(ctx context.Context, op string, points []orb.Point, from, to string) ([]orb.Point, error) {
	if len(points) == 0 {
		return nil, nil
	}

	start := time.Now()
	out := make([]orb.Point, 0, len(points))

	for chunk, i := 0, 0; i < len(points); chunk, i = chunk+1, i+c.batchSize {
		end := min(i+c.batchSize, len(points))

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &ServiceError{Op: op, Chunk: chunk, Err: err}
		}

		converted, err := c.convertChunk(ctx, op, chunk, points[i:end], from, to)
		if err != nil {
			logging.LogError(c.logger, "coordinate conversion failed", err,
				slog.String("op", op),
				slog.Int("chunk", chunk))
			return nil, err
		}
		out = append(out, converted...)
	}

	logging.LogOperation(c.logger, "coordinates_converted",
		slog.String("op", op),
		slog.Int("points", len(out)),
		slog.Duration("duration", time.Since(start)))

	return out, nil
}

func (c *Client) convertChunk(ctx context.Context, op string, chunk int, points []orb.Point, from, to string) ([]orb.Point, error) {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = strconv.FormatFloat(p[0], 'f', -1, 64) + "," + strconv.FormatFloat(p[1], 'f', -1, 64)
	}

	params := url.Values{}
	params.Set("coords", strings.Join(coords, ";"))
	params.Set("from", from)
	params.Set("to", to)
	params.Set("ak", c.ak)
	params.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ServiceError{Op: op, Chunk: chunk, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: op, Chunk: chunk, Err: err}
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "geoconv_response_body")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Op: op, Chunk: chunk, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{Op: op, Chunk: chunk, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var decoded convResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &ServiceError{Op: op, Chunk: chunk, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if decoded.Status != 0 {
		msg := decoded.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &ServiceError{Op: op, Chunk: chunk, Status: resp.StatusCode, Code: decoded.Status, Message: msg}
	}
	if len(decoded.Result) != len(points) {
		return nil, &ServiceError{
			Op:      op,
			Chunk:   chunk,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("expected %d points, got %d", len(points), len(decoded.Result)),
		}
	}

	out := make([]orb.Point, len(decoded.Result))
	for i, r := range decoded.Result {
		out[i] = orb.Point{r.X, r.Y}
	}
	return out, nil
}
