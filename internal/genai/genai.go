// Package genai wraps the OpenAI chat completion API for reminder
// message generation.
package genai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/detailops/engagement-core/internal/apperrors"
)

// completionService is the minimal surface used from the OpenAI client,
// kept as an interface so tests can stub it.
type completionService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Client generates short completions with a per-call timeout.
type Client struct {
	completions completionService
	model       openai.ChatModel
	maxTokens   int64
	timeout     time.Duration
}

// NewClient initializes a client from OPENAI_API_KEY. A missing key is
// an error; the caller decides whether to run template-only.
func NewClient(model string, maxTokens int, timeout time.Duration) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		completions: &cli.Chat.Completions,
		model:       openai.ChatModel(model),
		maxTokens:   int64(maxTokens),
		timeout:     timeout,
	}, nil
}

// Complete runs a single system+user completion and returns the text.
// Timeouts and empty responses surface as ErrAIProvider so callers can
// fall back deterministically.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: completion timed out: %w", apperrors.ErrAIProvider, err)
		}
		return "", fmt.Errorf("%w: %w", apperrors.ErrAIProvider, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no choices returned", apperrors.ErrAIProvider)
	}
	return resp.Choices[0].Message.Content, nil
}
