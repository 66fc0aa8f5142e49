package selector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/workspacekit/manifest-eval/internal/model"
	"github.com/workspacekit/manifest-eval/internal/resilience"
	"github.com/workspacekit/manifest-eval/pkg/anthropic"
)

const systemPrompt = "You are an AI agent that analyzes manifest files and determines which rule files should be loaded. Always respond with valid JSON."

const promptTemplate = `You are an AI agent that needs to determine which rule files should be loaded based on a manifest file and project context.

MANIFEST FORMAT: %s
MANIFEST:
%s

PROJECT CONTEXT:
%s

TASK: Determine which entries from the manifest should be loaded and explain your reasoning.

Respond with a single JSON object in the following format:
{
  "selected_files": ["level1-core.mdc", "level2-architecture.mdc"],
  "reasoning": "Explanation of why these entries were selected",
  "confidence": 95,
  "clarification_needed": false
}

Confidence is a number between 0 and 100 indicating how certain you are about your selection.
If you need clarification, set clarification_needed to true and explain what information is missing.`

// LLMSelector adapts the external completion service to the Selector
// contract. It serializes manifest and context into a prompt, retries
// transient failures with backoff, and parses the structured JSON response.
type LLMSelector struct {
	client      anthropic.Client
	modelID     string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	retry       resilience.RetryConfig
	limiter     *rate.Limiter
}

// LLMOption configures an LLMSelector.
type LLMOption func(*LLMSelector)

// WithModel sets the model ID to request.
func WithModel(id string) LLMOption {
	return func(s *LLMSelector) { s.modelID = id }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int64) LLMOption {
	return func(s *LLMSelector) { s.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) LLMOption {
	return func(s *LLMSelector) { s.temperature = t }
}

// WithTimeout bounds each selection call; exceeding it yields
// ErrSelectorTimeout.
func WithTimeout(d time.Duration) LLMOption {
	return func(s *LLMSelector) { s.timeout = d }
}

// WithRetryConfig overrides the default transient-retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) LLMOption {
	return func(s *LLMSelector) { s.retry = cfg }
}

// WithLimiter installs a rate governor shared across concurrent selections.
func WithLimiter(l *rate.Limiter) LLMOption {
	return func(s *LLMSelector) { s.limiter = l }
}

// NewLLMSelector wraps an Anthropic client as a Selector.
func NewLLMSelector(client anthropic.Client, opts ...LLMOption) *LLMSelector {
	s := &LLMSelector{
		client:      client,
		modelID:     "claude-sonnet-4-5-20250929",
		maxTokens:   1024,
		temperature: 0.0,
		timeout:     60 * time.Second,
		retry:       resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.retry.OnRetry == nil {
		s.retry.OnRetry = resilience.RetryLogger("llm select")
	}
	return s
}

func (s *LLMSelector) Name() string { return "llm" }

// Select sends the manifest and context to the completion service and parses
// the response. On ErrResponseParse the returned outcome is non-nil and
// carries the raw response for audit.
func (s *LLMSelector) Select(ctx context.Context, m *model.Manifest, scenarioCtx model.Context) (*Outcome, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "selector: rate limit wait")
		}
	}

	prompt, err := buildPrompt(m, scenarioCtx)
	if err != nil {
		return nil, err
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := resilience.DoVal(callCtx, s.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return s.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       s.modelID,
			MaxTokens:   s.maxTokens,
			System:      systemPrompt,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &s.temperature,
		})
	})
	if err != nil {
		// The run-level ctx staying alive means the per-call deadline fired.
		if errors.Is(err, context.DeadlineExceeded) || (callCtx.Err() != nil && ctx.Err() == nil) {
			return nil, eris.Wrapf(ErrSelectorTimeout, "after %s", s.timeout)
		}
		return nil, eris.Wrap(err, "selector: llm call")
	}

	resp.Usage.Log(s.modelID, "select")
	zap.L().Debug("llm selection complete",
		zap.String("model", s.modelID),
		zap.Duration("latency", time.Since(start)),
		zap.String("stop_reason", resp.StopReason),
	)

	return ParseOutcome(resp.Text)
}

// buildPrompt serializes the manifest and context the way the validation
// prompt expects them.
func buildPrompt(m *model.Manifest, scenarioCtx model.Context) (string, error) {
	manifestJSON, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "selector: marshal manifest")
	}
	contextJSON, err := json.MarshalIndent(scenarioCtx, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "selector: marshal context")
	}
	return fmt.Sprintf(promptTemplate, m.Variant, manifestJSON, contextJSON), nil
}
