package petkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/petkit-bridge/internal/infrastructure/config"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
)

// Method selects the request shape for a vendor API call.
type Method string

// Request shapes understood by the vendor API.
const (
	// MethodGet is a plain GET with query parameters.
	MethodGet Method = "GET"

	// MethodPostGet is a POST carrying its parameters in the query
	// string with an empty body. The login endpoint requires this.
	MethodPostGet Method = "POST_GET"

	// MethodPost is a POST with a form-encoded body.
	MethodPost Method = "POST"
)

// Fixed identification headers sent with every request. The vendor
// rejects clients it does not recognise, so these mimic the official
// Android app.
const (
	headerUserAgent  = "okhttp/3.12.1"
	headerAPIVersion = "7.29.1"
	headerClient     = "Android(7.1.1;Xiaomi)"
)

// requestTimeout bounds every call to the vendor cloud.
const requestTimeout = 30 * time.Second

// Requester is the request surface the device layer depends on.
//
// Implementations return the decoded response envelope. Transport and
// decode failures yield an empty (non-nil) map; vendor-level errors stay
// inside the envelope for the caller to inspect with EnvelopeError.
type Requester interface {
	Request(ctx context.Context, api string, params map[string]string, method Method) map[string]any
}

// Client is the low-level PetKit cloud HTTP client.
//
// All methods are safe for concurrent use. The session token is held
// here so that a re-login on one goroutine is visible to in-flight
// polling on others.
type Client struct {
	http   *http.Client
	base   string
	logger *logging.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the given API base URL.
// An empty base falls back to the default vendor endpoint.
func NewClient(base string, logger *logging.Logger) *Client {
	if base == "" {
		base = config.DefaultAPIBase
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		http:   &http.Client{Timeout: requestTimeout},
		base:   base,
		logger: logger,
	}
}

// SetToken replaces the session token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token (empty before login).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// apiURL resolves an endpoint path against the configured base.
// Absolute URLs pass through untouched.
func (c *Client) apiURL(api string) string {
	if strings.HasPrefix(api, "http:") || strings.HasPrefix(api, "https:") {
		return api
	}
	return strings.TrimRight(c.base, "/") + "/" + strings.TrimLeft(api, "/")
}

// Request performs one vendor API call and decodes the JSON envelope.
//
// Failures to reach or parse the vendor are logged and produce an empty
// map rather than an error: a single flaky poll must not break the
// refresh loop, and the next tick retries naturally.
func (c *Client) Request(ctx context.Context, api string, params map[string]string, method Method) map[string]any {
	endpoint := c.apiURL(api)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	var (
		req *http.Request
		err error
	)
	switch method {
	case MethodGet, MethodPostGet:
		httpMethod := http.MethodGet
		if method == MethodPostGet {
			httpMethod = http.MethodPost
		}
		u := endpoint
		if encoded := values.Encode(); encoded != "" {
			u = endpoint + "?" + encoded
		}
		req, err = http.NewRequestWithContext(ctx, httpMethod, u, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		c.logger.Error("building petkit request failed",
			"api", api,
			"method", string(method),
			"error", err,
		)
		return map[string]any{}
	}

	req.Header.Set("User-Agent", headerUserAgent)
	req.Header.Set("X-Api-Version", headerAPIVersion)
	req.Header.Set("X-Client", headerClient)
	req.Header.Set("X-Session", c.Token())

	rsp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("petkit request failed",
			"api", api,
			"method", string(method),
			"error", err,
		)
		return map[string]any{}
	}
	defer rsp.Body.Close() //nolint:errcheck // read-only body

	var decoded map[string]any
	if err := json.NewDecoder(rsp.Body).Decode(&decoded); err != nil {
		c.logger.Error("decoding petkit response failed",
			"api", api,
			"status", rsp.StatusCode,
			"error", err,
		)
		return map[string]any{}
	}
	if decoded == nil {
		return map[string]any{}
	}
	return decoded
}

// Result returns the result object of a response envelope, or nil when
// the result is absent or not an object.
func Result(rsp map[string]any) map[string]any {
	result, _ := rsp["result"].(map[string]any)
	return result
}
