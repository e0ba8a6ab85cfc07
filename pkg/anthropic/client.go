// Package anthropic wraps the official SDK as the enrichment capability used
// by the relevance, summarization, and sentiment stages.
package anthropic

import (
	"context"
	"errors"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/newswatch/internal/resilience"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024

	// defaultTimeout is the hard budget for a single capability call. A
	// hung upstream must not hang a worker.
	defaultTimeout = 30 * time.Second
)

// ErrInvalidRequest indicates the capability rejected the request itself
// (a programming bug, not an outage). Stage fallbacks must not absorb it.
var ErrInvalidRequest = eris.New("anthropic: invalid request")

// Client defines the completion operation the enrichment stages use.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single-turn completion request.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
}

// CompletionResponse holds the capability's text output.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
}

// TokenUsage tracks token consumption for cost observability.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *sdkClient) {
		c.timeout = d
	}
}

// WithMaxTokens overrides the default output token cap used when a request
// does not set its own.
func WithMaxTokens(n int64) Option {
	return func(c *sdkClient) {
		c.maxTokens = n
	}
}

// WithRateLimit caps capability calls at r requests per second.
func WithRateLimit(r float64, burst int) Option {
	return func(c *sdkClient) {
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewClient creates a capability client backed by the SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		timeout:   defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *sdkClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "anthropic: rate limiter wait")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &CompletionResponse{
		Text: text,
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

// classifyError distinguishes "capability unavailable" (transient, stage
// fallback applies) from "malformed request" (fatal for the item).
func classifyError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return resilience.NewRateLimitError(eris.Wrap(err, "anthropic: rate limited"))
		case apiErr.StatusCode >= 500:
			return resilience.NewTransientError(eris.Wrap(err, "anthropic: server error"), apiErr.StatusCode)
		case apiErr.StatusCode == 400 || apiErr.StatusCode == 404 || apiErr.StatusCode == 422:
			return eris.Wrap(errors.Join(ErrInvalidRequest, err), "anthropic: create message")
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return resilience.NewTransientError(eris.Wrap(err, "anthropic: timeout"), 0)
	}
	return eris.Wrap(err, "anthropic: create message")
}

// IsInvalidRequest reports whether the error marks a malformed request.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
