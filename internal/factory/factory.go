package factory

import (
	"context"
	"fmt"

	"github.com/anime-shed/truecost-inspector-go/internal/config"
	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
	"github.com/anime-shed/truecost-inspector-go/internal/gateway"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
	"github.com/anime-shed/truecost-inspector-go/internal/labels"
)

var providerLabels = map[string]string{
	config.ProviderOpenAI:    "OpenAI",
	config.ProviderGemini:    "Gemini",
	config.ProviderAnthropic: "Anthropic",
}

// ModelFactory creates vision model clients
type ModelFactory interface {
	CreateModel(ctx context.Context, cfg *config.Config) (gateway.VisionModel, error)
}

// modelFactory implements ModelFactory
type modelFactory struct{}

// NewModelFactory creates a new model factory
func NewModelFactory() ModelFactory {
	return &modelFactory{}
}

// CreateModel returns the client for cfg.Provider. A missing credential is a
// configuration error.
func (f *modelFactory) CreateModel(ctx context.Context, cfg *config.Config) (gateway.VisionModel, error) {
	label, ok := providerLabels[cfg.Provider]
	if !ok {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported model provider: %s", cfg.Provider), nil)
	}
	if cfg.APIKey() == "" {
		return nil, apperrors.NewConfigurationError(label+" API key not configured", fmt.Errorf("%s is not set", cfg.APIKeyName()))
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := gateway.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, apperrors.NewConfigurationError("failed to create Gemini client", err)
		}
		return client, nil
	case config.ProviderAnthropic:
		return gateway.NewAnthropicClient(cfg.AnthropicKey, cfg.Model), nil
	default:
		return gateway.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
	}
}

// SourceFactory creates the image fetchers behind a Resolver
type SourceFactory interface {
	CreateHTTPFetcher(cfg *config.Config) imagesource.Fetcher
	CreateAzureFetcher(cfg *config.Config) (*imagesource.AzureBlobFetcher, error)
}

// sourceFactory implements SourceFactory
type sourceFactory struct{}

// NewSourceFactory creates a new source factory
func NewSourceFactory() SourceFactory {
	return &sourceFactory{}
}

func (f *sourceFactory) CreateHTTPFetcher(cfg *config.Config) imagesource.Fetcher {
	return imagesource.NewHTTPFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize)
}

// CreateAzureFetcher returns nil when no storage account is configured.
func (f *sourceFactory) CreateAzureFetcher(cfg *config.Config) (*imagesource.AzureBlobFetcher, error) {
	if !cfg.AzureEnabled() {
		return nil, nil
	}
	return imagesource.NewAzureBlobFetcher(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.MaxRequestBodySize)
}

// LabelReaderFactory creates the optional OCR reader
type LabelReaderFactory interface {
	CreateReader(cfg *config.Config) (labels.Reader, error)
}

type labelReaderFactory struct{}

func NewLabelReaderFactory() LabelReaderFactory {
	return &labelReaderFactory{}
}

// CreateReader returns nil when label OCR is disabled.
func (f *labelReaderFactory) CreateReader(cfg *config.Config) (labels.Reader, error) {
	if !cfg.LabelOCREnabled {
		return nil, nil
	}
	return labels.NewTesseractReader(cfg.LabelOCRLanguage)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ModelFactory       ModelFactory
	SourceFactory      SourceFactory
	LabelReaderFactory LabelReaderFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		ModelFactory:       NewModelFactory(),
		SourceFactory:      NewSourceFactory(),
		LabelReaderFactory: NewLabelReaderFactory(),
	}
}
