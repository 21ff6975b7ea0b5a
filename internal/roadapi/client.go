// Package roadapi creates road records on the remote road management service.
package roadapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"roadnet.roadmap.org/internal/logging"
	"roadnet.roadmap.org/internal/network"
)

const DefaultTimeout = 30 * time.Second

// RemoteCreationError reports a creation request the service did not accept.
type RemoteCreationError struct {
	Level   int
	Name    string
	Status  int // HTTP status, 0 when the request never completed
	Code    int // envelope code
	Message string
	Err     error
}

func (e *RemoteCreationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "creating level %d road %q failed", e.Level, e.Name)
	if e.Status != 0 && (e.Status < 200 || e.Status > 299) {
		fmt.Fprintf(&b, ": http %d", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RemoteCreationError) Unwrap() error {
	return e.Err
}

// Client implements network.NodeCreator.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger).With(slog.String("component", "roadapi"))
	return c
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// CreateNode posts payload to {base}/create under the project and tenant of
// scope, and returns the id in the response data.
func (c *Client) CreateNode(ctx context.Context, scope network.Scope, payload network.Payload) (int64, error) {
	start := time.Now()
	fail := func(status, code int, msg string, err error) (int64, error) {
		e := &RemoteCreationError{
			Level:   payload.Level(),
			Name:    payload.DisplayName(),
			Status:  status,
			Code:    code,
			Message: msg,
			Err:     err,
		}
		logging.LogError(c.logger, "road creation failed", e, slog.Int("level", e.Level))
		return 0, e
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fail(0, 0, "", fmt.Errorf("encoding payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create", bytes.NewReader(body))
	if err != nil {
		return fail(0, 0, "", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client-type", "1")
	req.Header.Set("project-id", strconv.FormatInt(scope.ProjectID, 10))
	req.Header.Set("tenant-id", strconv.FormatInt(scope.TenantID, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, 0, "", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "roadapi_response_body")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, 0, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, 0, strings.TrimSpace(string(raw)), nil)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fail(resp.StatusCode, 0, "", fmt.Errorf("decoding response: %w", err))
	}
	if env.Code != 0 {
		msg := env.Msg
		if msg == "" {
			msg = "unknown error"
		}
		return fail(resp.StatusCode, env.Code, msg, nil)
	}

	id, err := parseID(env.Data)
	if err != nil {
		return fail(resp.StatusCode, 0, "", err)
	}

	logging.LogOperation(c.logger, "road_created",
		slog.Int("level", payload.Level()),
		slog.String("name", payload.DisplayName()),
		slog.Int64("id", id),
		slog.Duration("duration", time.Since(start)))

	return id, nil
}

// parseID accepts the id as a JSON number or a numeric string.
func parseID(data json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if id, err := n.Int64(); err == nil && id != 0 {
			return id, nil
		}
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && id != 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("response data %s is not a road id", string(data))
}
