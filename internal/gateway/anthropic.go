package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
)

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	// Calls are not retried; the gateway reports the first failure.
	c := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// AnthropicClient calls the Messages API.
type AnthropicClient struct {
	messages AnthropicMessager
	model    string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{messages: newAnthropicClient(apiKey), model: model}
}

func (c *AnthropicClient) Name() string      { return "anthropic" }
func (c *AnthropicClient) ModelName() string { return c.model }

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 2048,
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{anthropic.NewUserMessage(
			anthropic.NewImageBlockBase64(req.Image.MIMEType, req.Image.Base64()),
			anthropic.NewTextBlock(req.Instruction),
		)},
		Temperature: anthropic.Float(0.1),
	})
	if err != nil {
		return "", anthropicError(err)
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	pe := &apperrors.ProviderError{
		Message: err.Error(),
		Details: apperrors.ProviderDetails{Status: apiErr.StatusCode},
		Cause:   err,
	}
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(apiErr.RawJSON()), &body) == nil && body.Error.Type != "" {
		pe.Message = body.Error.Message
		pe.Details.Type = body.Error.Type
	}
	return pe
}
