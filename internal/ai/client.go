package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *Client) SetModel(model string) {
	c.model = model
}

// Tip is a short hydration nudge written by the model.
type Tip struct {
	Body string `json:"body"`
}

const tipPromptTemplate = `You write the body of a water-drinking reminder notification.

Current time: %s

Rules:
1. One sentence, at most 90 characters.
2. Friendly and encouraging, never guilt-tripping.
3. Vary the wording; mention the time of day when it fits.
4. No emoji, no hashtags, no quotes.`

var tipSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"body": {
			"type": "string",
			"description": "The notification body"
		}
	},
	"required": ["body"],
	"additionalProperties": false
}`)

const maxTipLength = 120

// ReminderBody asks the model for a fresh reminder text.
func (c *Client) ReminderBody(ctx context.Context) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(tipPromptTemplate, time.Now().Format("15:04 (Monday)")),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Write the next reminder.",
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "tip",
				Schema: tipSchema,
				Strict: true,
			},
		},
		Temperature: 0.9,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from AI")
	}

	return parseTip(resp.Choices[0].Message.Content)
}

func parseTip(content string) (string, error) {
	var tip Tip
	if err := json.Unmarshal([]byte(content), &tip); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}

	body := strings.TrimSpace(tip.Body)
	if body == "" {
		return "", fmt.Errorf("empty tip")
	}
	if runes := []rune(body); len(runes) > maxTipLength {
		body = string(runes[:maxTipLength-1]) + "…"
	}
	return body, nil
}
