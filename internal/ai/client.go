package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultModel = "claude-sonnet-4-5"

const coachingPrompt = `You are a study coach. The user is tracking focus time, study sessions and completed tasks.

Given their totals for today, encourage them in 1-2 plain sentences. No markdown, no headings, no bullet points, no emojis. Just talk like a person.`

type Client struct {
	client *openai.Client
	model  string
}

// NewClient builds a client for an OpenAI-compatible endpoint. AI_URL and
// AI_API_KEY must be set; AI_MODEL overrides the default model.
func NewClient() (*Client, error) {
	aiURL := os.Getenv("AI_URL")
	aiKey := os.Getenv("AI_API_KEY")

	if aiURL == "" || aiKey == "" {
		return nil, fmt.Errorf("missing required environment variables: AI_URL, AI_API_KEY")
	}

	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = defaultModel
	}

	client := openai.NewClient(
		option.WithBaseURL(aiURL+"/v1/"),
		option.WithAPIKey(aiKey),
	)

	return &Client{client: &client, model: model}, nil
}

// CoachingMessage turns a plain-text summary of today's statistics into a
// short coaching line.
func (c *Client) CoachingMessage(ctx context.Context, statsSummary string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(coachingPrompt),
			openai.UserMessage(statsSummary),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}
