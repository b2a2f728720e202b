// Package applier is the client for the apply service: the secondary
// service that writes generated code into a sandbox and reports its progress
// as an SSE stream of JSON messages.
package applier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikaNatus/open-lovable/pkg/logger"
	"github.com/MikaNatus/open-lovable/pkg/sse"
)

// DefaultPath is the apply endpoint appended to the service base URL.
const DefaultPath = "/api/apply-ai-code-stream"

var (
	// ErrApplyFailed is returned when the apply service is unreachable or
	// answers with a non-2xx status.
	ErrApplyFailed = errors.New("apply service request failed")

	// ErrMalformedMessage is returned by Stream.Next for a message whose data
	// is not a JSON object. The stream remains usable.
	ErrMalformedMessage = errors.New("malformed apply service message")
)

// Request is the body sent to the apply service.
type Request struct {
	Response  string   `json:"response"`
	Packages  []string `json:"packages"`
	SandboxID string   `json:"sandboxId,omitempty"`

	// Header holds extra headers to send with the request.
	Header http.Header `json:"-"`
}

// Client calls the apply service.
type Client struct {
	baseURL    string
	path       string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the http.Client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithPath overrides DefaultPath.
func WithPath(path string) Option {
	return func(c *Client) {
		c.path = "/" + strings.TrimLeft(path, "/")
	}
}

// New returns a Client for the apply service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    DefaultPath,
		httpClient: &http.Client{
			// The apply stream can run for minutes while packages install, so
			// only the wait for response headers is bounded.
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 2 * time.Minute,
			},
		},
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the full apply URL.
func (c *Client) Endpoint() string {
	return c.baseURL + c.path
}

// Apply posts req to the apply service and returns its message stream.
// The caller must Close the returned Stream.
func (c *Client) Apply(ctx context.Context, req *Request) (*Stream, error) {
	body := *req
	if body.Packages == nil {
		body.Packages = []string{}
	}

	payload, err := json.Marshal(&body)
	if err != nil {
		return nil, fmt.Errorf("encoding apply request: %w", err)
	}

	endpoint := c.Endpoint()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating apply request: %w", err)
	}
	for k, v := range req.Header {
		for _, vv := range v {
			httpReq.Header.Add(k, vv)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	c.logger.Debug("calling apply service",
		"url", endpoint,
		"packages", len(body.Packages),
		"response_bytes", len(body.Response),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrApplyFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.logger.Error("apply service returned error",
			"status", resp.StatusCode,
			"body", string(snippet),
		)
		return nil, fmt.Errorf("%w: status %d", ErrApplyFailed, resp.StatusCode)
	}

	return &Stream{
		body:   resp.Body,
		reader: sse.NewReader(resp.Body),
	}, nil
}

// Stream is the sequence of messages returned by the apply service.
type Stream struct {
	body   io.ReadCloser
	reader *sse.Reader

	// pending holds the remaining data lines of an event that carried one
	// message per line.
	pending []string
}

// Next returns the next message. It returns nil, nil at end of stream and
// ErrMalformedMessage for a message that is not a JSON object, after which
// Next may be called again.
//
// An event whose data lines do not form one JSON object together is read as
// one message per data line.
func (s *Stream) Next() (Message, error) {
	for len(s.pending) == 0 {
		ev, err := s.reader.Next()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return nil, nil
		}

		m, err := decodeMessage(ev.Data)
		if err == nil || !strings.Contains(ev.Data, "\n") {
			return m, err
		}
		for line := range strings.SplitSeq(ev.Data, "\n") {
			if strings.TrimSpace(line) != "" {
				s.pending = append(s.pending, line)
			}
		}
	}

	line := s.pending[0]
	s.pending = s.pending[1:]
	return decodeMessage(line)
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}

func decodeMessage(data string) (Message, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var m Message
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedMessage)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedMessage)
	}
	return m, nil
}
