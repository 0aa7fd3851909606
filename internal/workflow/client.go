// Package workflow submits briefs to the remote analysis workflow and
// classifies what comes back.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout is the ceiling on one submission.
const DefaultTimeout = 30 * time.Second

// DefaultMaxReplyBytes caps how much of a reply body is read.
const DefaultMaxReplyBytes = 10 << 20

const invokePath = "/runs/invoke"

// Config holds the settings needed to construct a Client.
type Config struct {
	// Endpoint is the root URL of the workflow deployment.
	Endpoint string

	// APIKey is sent as x-api-key when non-empty.
	APIKey string

	// Timeout bounds a whole submission. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient is an optional custom HTTP client. Its own Timeout is
	// replaced by the one above.
	HTTPClient *http.Client

	// MaxReplyBytes caps the reply body. Defaults to DefaultMaxReplyBytes.
	MaxReplyBytes int64

	Logger *log.Logger
}

// Client sends analysis requests. It keeps no per-session state and is safe
// for concurrent use.
type Client struct {
	url     string
	apiKey  string
	timeout  time.Duration
	maxReply int64
	client   *http.Client
	logger   *log.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("workflow: endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		c.Timeout = timeout
		httpClient = &c
	}

	maxReply := cfg.MaxReplyBytes
	if maxReply <= 0 {
		maxReply = DefaultMaxReplyBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		url:      endpoint + invokePath,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		maxReply: maxReply,
		client:   httpClient,
		logger:   logger,
	}, nil
}

// Timeout returns the configured ceiling.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Submit sends exactly one request and never retries. The result is always
// non-nil.
func (c *Client) Submit(ctx context.Context, req AnalysisRequest) Reply {
	encoded, err := json.Marshal(newInvokeBody(req))
	if err != nil {
		return &Failure{Kind: FailureTransport, Err: fmt.Errorf("marshal request body: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(encoded))
	if err != nil {
		return &Failure{Kind: FailureTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	c.logger.Debug("Submitting brief", "thread", req.ThreadID, "bytes", len(req.RawBrief))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return c.transportFailure(req, err, start)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxReply+1))
	if err != nil {
		return c.transportFailure(req, fmt.Errorf("read response body: %w", err), start)
	}
	oversized := int64(len(body)) > c.maxReply
	if oversized {
		body = body[:c.maxReply]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Workflow returned an error", "thread", req.ThreadID, "status", resp.StatusCode, "elapsed", time.Since(start))
		return &Failure{Kind: FailureRemote, Status: resp.StatusCode, Body: string(body)}
	}

	if oversized {
		c.logger.Warn("Workflow reply too large", "thread", req.ThreadID, "limit", c.maxReply)
		return &Failure{Kind: FailureDecode, Status: resp.StatusCode, Err: fmt.Errorf("reply exceeds %d bytes", c.maxReply)}
	}

	success, err := decodeSuccess(body)
	if err != nil {
		c.logger.Warn("Undecodable workflow reply", "thread", req.ThreadID, "err", err)
		return &Failure{Kind: FailureDecode, Status: resp.StatusCode, Err: err}
	}

	c.logger.Debug("Workflow replied", "thread", req.ThreadID, "status", resp.StatusCode, "elapsed", time.Since(start))
	return success
}

func (c *Client) transportFailure(req AnalysisRequest, err error, start time.Time) *Failure {
	if isTimeout(err) {
		c.logger.Warn("Workflow request timed out", "thread", req.ThreadID, "timeout", c.timeout)
		return &Failure{Kind: FailureTimeout, Err: err}
	}
	c.logger.Error("Workflow request failed", "thread", req.ThreadID, "elapsed", time.Since(start), "err", err)
	return &Failure{Kind: FailureTransport, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func decodeSuccess(body []byte) (*Success, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("reply is null")
	}
	return &Success{
		BriefAnalysis:   present(fields["brief_analysis"]),
		ProjectStrategy: present(fields["project_strategy"]),
		Raw:             append(json.RawMessage(nil), body...),
	}, nil
}

// present drops empty values so absent, null, "", [], {}, false and 0 all
// look the same.
func present(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if !x {
			return nil
		}
	case string:
		if x == "" {
			return nil
		}
	case float64:
		if x == 0 {
			return nil
		}
	case []any:
		if len(x) == 0 {
			return nil
		}
	case map[string]any:
		if len(x) == 0 {
			return nil
		}
	}
	return raw
}
