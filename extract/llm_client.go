package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	ijson "github.com/richinex/cmdsaw/internal/json"
	"github.com/richinex/cmdsaw/llm"
)

// DefaultCallTimeout bounds a single provider call.
const DefaultCallTimeout = 120 * time.Second

// LLMOptions configures an LLMClient.
type LLMOptions struct {
	// Limiter paces calls across the whole run; nil disables pacing.
	Limiter *rate.Limiter
	// CallTimeout bounds each provider call; zero uses DefaultCallTimeout.
	CallTimeout time.Duration
	Logger      *log.Logger
}

// LLMClient implements Client over an llm.Provider.
type LLMClient struct {
	provider llm.Provider
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *log.Logger
}

// NewLLMClient creates a client for provider.
func NewLLMClient(provider llm.Provider, opts LLMOptions) *LLMClient {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &LLMClient{
		provider: provider,
		limiter:  opts.Limiter,
		timeout:  opts.CallTimeout,
		logger:   opts.Logger,
	}
}

// ModelID returns provider/model.
func (c *LLMClient) ModelID() string {
	return llm.ModelID(c.provider)
}

// Extract runs one extraction call.
func (c *LLMClient) Extract(ctx context.Context, req Request) (Result, error) {
	contract := req.ContractFor()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			return Result{}, &Error{Kind: KindRateLimited, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.provider.ChatWithFormat(callCtx, buildMessages(req, contract), llm.NewJSONObjectFormat())
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		classified := classify(err)
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			classified.Kind = KindTimeout
		}
		c.logger.Debug("extraction call failed", "task", req.Task, "path", req.path(), "kind", classified.Kind, "err", err)
		return Result{}, classified
	}
	c.logger.Debug("extraction call", "task", req.Task, "path", req.path(), "elapsed", time.Since(start))

	raw, err := ijson.ExtractJSON(resp.Content)
	if err != nil {
		return Result{}, &Error{Kind: KindMalformed, Err: fmt.Errorf("response is not JSON: %w", err)}
	}
	if err := contract.Validate([]byte(raw)); err != nil {
		return Result{}, &Error{Kind: KindMalformed, Partial: json.RawMessage(raw), Err: err}
	}
	return Result{Raw: json.RawMessage(raw)}, nil
}

// Verify LLMClient implements Client
var _ Client = (*LLMClient)(nil)
