// Package engine wraps the LLM backend used for market explanations,
// coaching insights and chat.
package engine

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"marketmind/internal/models"
)

// LLMClient abstracts the completion backend so the engine can run
// against fakes in tests.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, messages []models.ChatMessage, model string, maxTokens int) (string, error)
}

// OpenAIClient implements LLMClient using the OpenAI API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client for the given key and default model.
// baseURL is optional and routes requests to a compatible endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete sends a single-turn prompt and returns the response text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// Chat sends a full transcript. An empty model falls back to the
// client default.
func (c *OpenAIClient) Chat(ctx context.Context, messages []models.ChatMessage, model string, maxTokens int) (string, error) {
	if model == "" {
		model = c.model
	}

	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  converted,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the default model name.
func (c *OpenAIClient) Model() string {
	return c.model
}
