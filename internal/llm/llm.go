package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/theboatbrokers/brokerchat/internal/config"
)

// OpenAIClient implements Client on top of any OpenAI-compatible chat
// completion endpoint.
type OpenAIClient struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a generative text client from configuration.
func NewClient(cfg config.LLMConfig) *OpenAIClient {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (c *OpenAIClient) request(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
}

func (c *OpenAIClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Generate sends the prompt as a single user message and returns the
// trimmed completion.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, c.request(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateStream opens a streaming completion for the prompt. The caller
// owns the stream and must Close it. The per-call timeout covers the whole
// stream lifetime.
func (c *OpenAIClient) GenerateStream(ctx context.Context, prompt string) (Stream, error) {
	ctx, cancel := c.withTimeout(ctx)

	s, err := c.api.CreateChatCompletionStream(ctx, c.request(prompt))
	if err != nil {
		cancel()
		return nil, err
	}
	return &openaiStream{inner: s, cancel: cancel}, nil
}

type openaiStream struct {
	inner  *openai.ChatCompletionStream
	cancel context.CancelFunc
}

func (s *openaiStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if err != nil {
			return "", err // io.EOF on normal end
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (s *openaiStream) Close() error {
	s.cancel()
	return s.inner.Close()
}

// Drain consumes an entire stream into one string, forwarding each fragment
// to emit as it arrives. It returns the accumulated text only if the stream
// ended cleanly; a mid-stream failure returns the error and the partial
// text must not be treated as a complete turn.
func Drain(s Stream, emit func(fragment string) error) (string, error) {
	defer s.Close()

	var full strings.Builder
	for {
		fragment, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return "", err
		}
		full.WriteString(fragment)
		if emit != nil {
			if err := emit(fragment); err != nil {
				return "", err
			}
		}
	}
}
