// Package apisvc talks to the appraisal backend over HTTP.
package apisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/appraise/core"
)

const (
	requestIDHeader   = "X-Request-ID"
	defaultStreamPath = "/stream/users"
	maxErrorBody      = 64 * 1024
)

// Client is the REST + SSE client of the backend.
// The underlying http.Client has no global timeout so live streams can stay open;
// plain requests are bounded by a per-request context deadline instead.
type Client struct {
	baseURL        string
	streamPath     string
	timeout        time.Duration
	httpClient     *http.Client
	logger         core.Logger
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithStreamPath(path string) Option {
	return func(c *Client) { c.streamPath = path }
}

// WithTimeout bounds every non-streaming request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// OnUnauthorized registers fn to be called when the server rejects a bearer token with a 401.
// The dashboard wires it to session.Store.Expire.
func OnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		streamPath: defaultStreamPath,
		timeout:    core.DefaultRequestTimeout,
		httpClient: &http.Client{},
		logger:     core.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends a JSON request and decodes a 2xx JSON answer into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.serverError(resp, token)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send classifies transport failures: a cancelled ctx is returned as is, anything else is a NetworkError.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err == nil {
		return resp, nil
	}
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return nil, ctxErr
	}
	c.logger.Warn("no response from server", req.Method, req.URL.Path, req.Header.Get(requestIDHeader), err)
	return nil, &core.NetworkError{Err: err}
}

// serverError reads an error body: {"error": "..."}, {"message": "..."} or a map of field errors.
func (c *Client) serverError(resp *http.Response, token string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	sErr := &core.ServerError{Code: resp.StatusCode, Message: errorMessage(raw)}
	if resp.StatusCode == http.StatusUnauthorized && token != "" && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return sErr
}

func errorMessage(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	for _, key := range []string{"error", "message"} {
		if msg, ok := body[key].(string); ok && msg != "" {
			return msg
		}
	}

	// field errors, eg. {"email": "this field is required"}
	keys := make([]string, 0, len(body))
	for key := range body {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, key := range keys {
		if msg, ok := body[key].(string); ok {
			msgs = append(msgs, key+": "+msg)
		}
	}
	return strings.Join(msgs, "; ")
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
