package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-assistant/constants"
	"github.com/joseph-ayodele/doc-assistant/internal/common"
)

// Outcome tags a Response as Success or Failure.
type Outcome int

const (
	Success Outcome = iota + 1
	Failure
)

// Response is the result of one capability call. Content is set on Success,
// Diagnostic (the provider's raw body) on Failure.
type Response struct {
	Capability  constants.Capability
	Outcome     Outcome
	Status      int
	Content     []byte
	ContentType string
	Diagnostic  string
}

func (r Response) OK() bool { return r.Outcome == Success }

// Text returns the content of a successful response as a string.
func (r Response) Text() string { return string(r.Content) }

// Auth is the provider-specific Authorization header value.
type Auth struct {
	Scheme string
	Key    string
}

func Bearer(key string) Auth { return Auth{Scheme: "Bearer", Key: key} }
func Token(key string) Auth  { return Auth{Scheme: "Token", Key: key} }

func (a Auth) header() string { return a.Scheme + " " + a.Key }

// Request is an immutable description of one POST to a provider.
type Request struct {
	Capability constants.Capability
	URL        string
	Auth       Auth
	Body       any
}

// Client sends capability requests. It never retries.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a Client. A zero timeout leaves requests bounded only by ctx.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: &http.Client{Timeout: timeout}, logger: logger}
}

// Call performs the request. Any status other than 200 yields a Failure
// response; transport and encoding problems are returned as errors.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	reqID := uuid.New().String()
	start := time.Now()
	out := Response{Capability: req.Capability}

	bs, err := json.Marshal(req.Body)
	if err != nil {
		c.logger.Error("capability.http.encode_error", "req_id", reqID, "capability", req.Capability, "error", err)
		return out, fmt.Errorf("encode json: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(bs))
	if err != nil {
		c.logger.Error("capability.http.build_request_error", "req_id", reqID, "error", err)
		return out, fmt.Errorf("build request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Authorization", req.Auth.header())

	c.logger.Info("capability.http.request",
		"req_id", reqID,
		"session_id", common.SessionIDFromContext(ctx),
		"capability", req.Capability,
		"url", req.URL,
		"content_length", len(bs),
	)

	resp, err := c.http.Do(hreq)
	if err != nil {
		c.logger.Error("capability.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return out, fmt.Errorf("%s request: %w", req.Capability, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("capability.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("read %s response: %w", req.Capability, err)
	}

	c.logger.Info("capability.http.response",
		"req_id", reqID,
		"capability", req.Capability,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	out.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		out.Outcome = Failure
		out.Diagnostic = string(raw)
		return out, nil
	}
	out.Outcome = Success
	out.Content = raw
	out.ContentType = resp.Header.Get("Content-Type")
	return out, nil
}
