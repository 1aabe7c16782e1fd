package container

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/anime-shed/truecost-inspector-go/internal/config"
	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
	"github.com/anime-shed/truecost-inspector-go/internal/factory"
	"github.com/anime-shed/truecost-inspector-go/internal/frame"
	"github.com/anime-shed/truecost-inspector-go/internal/gateway"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
	"github.com/anime-shed/truecost-inspector-go/internal/labels"
	"github.com/anime-shed/truecost-inspector-go/internal/logger"
	"github.com/anime-shed/truecost-inspector-go/internal/observer"
	"github.com/anime-shed/truecost-inspector-go/internal/service"
	"github.com/anime-shed/truecost-inspector-go/internal/transport"
	"github.com/anime-shed/truecost-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	resolver        *imagesource.Resolver
	gateway         *gateway.Gateway
	labelReader     labels.Reader
	metrics         *observer.MetricsObserver
	analysisService service.AnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	return NewContainerWithFactory(ctx, cfg, factory.NewComponentFactory())
}

// NewContainerWithFactory builds the dependency graph from the given factories.
// A missing model credential does not fail construction.
func NewContainerWithFactory(ctx context.Context, cfg *config.Config, components *factory.ComponentFactory) (*Container, error) {
	model, err := components.ModelFactory.CreateModel(ctx, cfg)
	var unavailable error
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeConfiguration) {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		logger.WithError(err).WithField("credential", cfg.APIKeyName()).
			Warn("Model provider unavailable, analysis requests will fail until configured")
		unavailable = err
	}

	azure, err := components.SourceFactory.CreateAzureFetcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure fetcher: %w", err)
	}
	resolver := imagesource.NewResolver(
		validation.NewURLValidator(),
		components.SourceFactory.CreateHTTPFetcher(cfg),
		azure,
	)

	labelReader, err := components.LabelReaderFactory.CreateReader(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create label reader: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	gw := gateway.New(gateway.Options{
		Model:        model,
		Unavailable:  unavailable,
		ModelTimeout: cfg.ModelTimeout,
		Frames:       frame.NewInspector(frame.DefaultThresholds()),
		Labels:       labelReader,
		Events:       events,
	})

	analysisService := service.NewAnalysisService(resolver, gw)
	handler := transport.NewHandler(analysisService, metrics, cfg)

	return &Container{
		config:          cfg,
		resolver:        resolver,
		gateway:         gw,
		labelReader:     labelReader,
		metrics:         metrics,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the analysis service behind the HTTP handler.
func (c *Container) Service() service.AnalysisService {
	return c.analysisService
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases resources held by optional components.
func (c *Container) Close() error {
	if closer, ok := c.labelReader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
