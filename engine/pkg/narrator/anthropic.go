package narrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// LLMClient is the model interface the narrator depends on. Stream
// delivers raw text tokens as they arrive; Complete returns the whole
// response at once.
type LLMClient interface {
	Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) error
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AnthropicClient implements LLMClient using the Anthropic API.
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64

	// OnUsage, when set, receives the token usage of every call.
	OnUsage func(inputTokens, outputTokens int64)
}

// NewAnthropicClient creates a new Anthropic-based client.
func NewAnthropicClient(model anthropic.Model, maxTokens int64) *AnthropicClient {
	return &AnthropicClient{
		client:    anthropic.NewClient(),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Stream sends a prompt and delivers response tokens incrementally.
func (c *AnthropicClient) Stream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string)) error {
	start := time.Now()
	slog.Debug("anthropic stream starting", "model", c.model, "maxTokens", c.maxTokens, "userPromptLen", len(userPrompt))

	stream := c.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})

	var inputTokens, outputTokens int64
	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "content_block_delta":
			delta := event.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" && delta.Delta.Text != "" {
				onToken(delta.Delta.Text)
			}
		case "message_start":
			inputTokens = event.AsMessageStart().Message.Usage.InputTokens
		case "message_delta":
			outputTokens = event.AsMessageDelta().Usage.OutputTokens
		}
	}

	duration := time.Since(start)
	if err := stream.Err(); err != nil {
		slog.Error("anthropic stream failed", "duration", duration, "error", err)
		return fmt.Errorf("anthropic API error: %w", err)
	}
	if c.OnUsage != nil {
		c.OnUsage(inputTokens, outputTokens)
	}
	slog.Debug("anthropic stream completed", "duration", duration)
	return nil
}

// Complete sends a prompt and returns the full response text.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})

	duration := time.Since(start)
	if err != nil {
		slog.Error("anthropic call failed", "duration", duration, "error", err)
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	slog.Debug("anthropic call completed", "duration", duration, "stopReason", msg.StopReason)
	if c.OnUsage != nil {
		c.OnUsage(msg.Usage.InputTokens, msg.Usage.OutputTokens)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}
