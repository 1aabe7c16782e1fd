package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	models contentGenerator
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{models: client.Models, model: model}, nil
}

func (c *GeminiClient) Name() string      { return "gemini" }
func (c *GeminiClient) ModelName() string { return c.model }

func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType),
		genai.NewPartFromText(req.Instruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.1),
		ResponseMIMEType:  "application/json",
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", geminiError(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &apperrors.ProviderError{
			Message: apiErr.Message,
			Details: apperrors.ProviderDetails{Status: apiErr.Code, Code: apiErr.Status},
			Cause:   err,
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &apperrors.ProviderError{
			Message: apiErrPtr.Message,
			Details: apperrors.ProviderDetails{Status: apiErrPtr.Code, Code: apiErrPtr.Status},
			Cause:   err,
		}
	}
	return err
}
