package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
)

// OpenAIClient calls an OpenAI compatible /chat/completions endpoint.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any  `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// NewOpenAIClient creates a client. The HTTP client carries no timeout of its
// own; callers bound each call through the context.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{},
	}
}

func (c *OpenAIClient) Name() string      { return "openai" }
func (c *OpenAIClient) ModelName() string { return c.model }

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	reqBody := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: []openAIContentPart{
				{Type: "text", Text: req.Instruction},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: req.Image.DataURL()}},
			}},
		},
		Temperature:    0.1,
		MaxTokens:      2048,
		ResponseFormat: map[string]any{"type": "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed openAIResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		pe := &apperrors.ProviderError{
			Message: fmt.Sprintf("API request failed with status %d", resp.StatusCode),
			Details: apperrors.ProviderDetails{Status: resp.StatusCode},
		}
		if decodeErr == nil && parsed.Error != nil {
			pe.Message = parsed.Error.Message
			pe.Details.Type = parsed.Error.Type
			pe.Details.Code = codeString(parsed.Error.Code)
		}
		return "", pe
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to parse response: %w", decodeErr)
	}
	if parsed.Error != nil {
		return "", &apperrors.ProviderError{
			Message: parsed.Error.Message,
			Details: apperrors.ProviderDetails{Type: parsed.Error.Type, Code: codeString(parsed.Error.Code)},
		}
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// codeString renders the provider's code, which may be a string, a number or null.
func codeString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return fmt.Sprintf("%g", c)
	default:
		return fmt.Sprint(c)
	}
}
