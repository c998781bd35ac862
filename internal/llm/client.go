// Package llm generates notification subject/body pairs through an
// OpenAI-compatible chat-completion endpoint.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/randomoranges/can-do/internal/domain"
)

// SystemPrompt is the fixed persona every generation request carries.
const SystemPrompt = `You are Happy, an AI accountability assistant for a personal to-do app called DoIt.

Personality:
- Friendly but real
- Casual, not corporate
- Witty, sometimes sarcastic
- Light roasting when deserved
- Never preachy or motivational-poster cringe

Rules:
- Keep emails short and punchy
- No fluff, no filler
- Use casual language, contractions, lowercase energy
- One emoji in subject line
- Sign off every email with "— Happy"
- Never use bullet points excessively
- Sound like a friend texting, not a productivity app

IMPORTANT: Always respond in valid JSON with exactly two keys: "subject" and "body". The body should be plain text (not HTML). Example:
{"subject": "📋 your monday lineup", "body": "hey...\n\n— Happy"}`

// ErrNoAPIKey means the generation adapter cannot be constructed.
var ErrNoAPIKey = errors.New("llm: api key not set")

const requestTimeout = 30 * time.Second

// Client calls the completion endpoint once per candidate job.
type Client struct {
	api   openai.Client
	model string
	log   *zap.Logger
}

// New builds a Client against the given OpenAI-compatible base URL.
func New(apiKey, baseURL, model string, log *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	api := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(requestTimeout),
	)
	return &Client{api: api, model: model, log: log}, nil
}

// Generate sends the persona, the job instruction and the serialized user
// context, and parses the model output into a Message. A transport or API
// error propagates to the caller; nothing is sent and the ledger stays
// untouched in that case.
func (c *Client) Generate(ctx context.Context, instruction string, uc domain.UserContext) (Message, error) {
	ctxJSON, err := json.MarshalIndent(uc, "", "  ")
	if err != nil {
		return Message{}, fmt.Errorf("marshal context: %w", err)
	}
	userMsg := instruction + "\n\nContext data:\n" + string(ctxJSON)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(userMsg),
		},
		Temperature: openai.Float(0.9),
		MaxTokens:   openai.Int(500),
	})
	if err != nil {
		return Message{}, fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, errors.New("completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	msg := ParseMessage(content)
	if msg.Source != SourceJSON {
		c.log.Warn("completion was not strict JSON",
			zap.String("source", string(msg.Source)),
			zap.String("model", c.model),
		)
	}
	return msg, nil
}
