// Package llm wraps the OpenAI-compatible chat completion endpoint
// that grounds answers. The rest of the pipeline treats it as prompt
// in, text out; any failure or unusable shape is a *CompletionError.
package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// CompletionError is terminal for an evidence cycle. There is no
// fallback answer generator.
type CompletionError struct {
	Model string
	Cause error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion with model %s failed: %v", e.Model, e.Cause)
}

func (e *CompletionError) Unwrap() error { return e.Cause }

// Completer is the pipeline's view of the generation collaborator.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Options are the generation parameters passed on every call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Timeout     time.Duration
}

// GroqClient talks to Groq's OpenAI-compatible chat API.
type GroqClient struct {
	client *openai.Client
	opts   Options
	logger *logrus.Logger
}

func NewGroqClient(apiKey, baseURL string, opts Options, logger *logrus.Logger) *GroqClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &GroqClient{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: logger,
	}
}

func (c *GroqClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	c.logger.WithFields(logrus.Fields{
		"model":       c.opts.Model,
		"prompt_size": len(user),
	}).Debug("Requesting completion")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
	})
	if err != nil {
		return "", &CompletionError{Model: c.opts.Model, Cause: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &CompletionError{Model: c.opts.Model, Cause: fmt.Errorf("response contained no usable choices")}
	}

	return resp.Choices[0].Message.Content, nil
}
