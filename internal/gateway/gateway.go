package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/truecost-inspector-go/internal/costing"
	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
	"github.com/anime-shed/truecost-inspector-go/internal/frame"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
	"github.com/anime-shed/truecost-inspector-go/internal/labels"
	"github.com/anime-shed/truecost-inspector-go/internal/logger"
	"github.com/anime-shed/truecost-inspector-go/internal/observer"
)

// Response keys added next to the model's fields.
const (
	FieldFrameQuality  = "frameQuality"
	FieldLabelEvidence = "labelEvidence"
)

const (
	// DefaultModelTimeout bounds a model call when none is configured.
	DefaultModelTimeout = 45 * time.Second
	maxLoggedReply      = 300
)

// Analyzer is the contract the HTTP layer depends on.
type Analyzer interface {
	// Ready reports why no analysis can run, or nil.
	Ready() error
	Analyze(ctx context.Context, img imagesource.Image) (costing.Document, error)
}

// Options configures a Gateway. Model may be nil, in which case Unavailable
// explains why and every analysis fails with it before any call is made.
type Options struct {
	Model        VisionModel
	Unavailable  error
	ModelTimeout time.Duration
	Frames       *frame.Inspector
	Labels       labels.Reader
	Events       observer.Subject
}

// Gateway runs one analysis per call and holds no per-request state.
type Gateway struct {
	model        VisionModel
	unavailable  error
	modelTimeout time.Duration
	frames       *frame.Inspector
	labels       labels.Reader
	events       observer.Subject
	tracer       trace.Tracer
}

func New(opts Options) *Gateway {
	g := &Gateway{
		model:        opts.Model,
		unavailable:  opts.Unavailable,
		modelTimeout: opts.ModelTimeout,
		frames:       opts.Frames,
		labels:       opts.Labels,
		events:       opts.Events,
		tracer:       otel.Tracer("github.com/anime-shed/truecost-inspector-go/internal/gateway"),
	}
	if g.modelTimeout <= 0 {
		g.modelTimeout = DefaultModelTimeout
	}
	if g.model == nil && g.unavailable == nil {
		g.unavailable = apperrors.NewConfigurationError("model provider not configured", nil)
	}
	if g.events == nil {
		g.events = observer.NewEventPublisher()
	}
	return g
}

// Ready returns the configuration error every analysis would fail with, or nil.
func (g *Gateway) Ready() error {
	return g.unavailable
}

// Analyze sends img to the model and returns the normalized result. A reply that
// is not JSON yields the parse-error placeholder rather than an error.
func (g *Gateway) Analyze(ctx context.Context, img imagesource.Image) (costing.Document, error) {
	if g.unavailable != nil {
		return nil, g.unavailable
	}
	if img.Empty() {
		return nil, apperrors.NewValidationError("No image", imagesource.ErrNoImage)
	}

	start := time.Now()
	base := observer.AnalysisEvent{
		RequestID:  logger.RequestIDFromContext(ctx),
		Provider:   g.model.Name(),
		Model:      g.model.ModelName(),
		ImageBytes: len(img.Data),
	}
	g.publish(ctx, base, observer.AnalysisStarted, nil)

	ctx, span := g.tracer.Start(ctx, "gateway.Analyze", trace.WithAttributes(
		attribute.String("model.provider", base.Provider),
		attribute.String("model.name", base.Model),
		attribute.Int("image.bytes", base.ImageBytes),
		attribute.String("image.mime_type", img.MIMEType),
	))
	defer span.End()

	modelCtx, cancel := context.WithTimeout(ctx, g.modelTimeout)
	defer cancel()

	var (
		reply     string
		quality   *frame.Quality
		labelText string
		eg        errgroup.Group
	)
	eg.Go(func() error {
		var err error
		reply, err = g.model.Complete(modelCtx, NewRequest(img))
		return err
	})
	eg.Go(func() error {
		quality = g.inspectFrame(ctx, img)
		return nil
	})
	eg.Go(func() error {
		labelText = g.readLabel(modelCtx, img)
		return nil
	})

	if err := eg.Wait(); err != nil {
		appErr := classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Message)
		base.ProcessingTime = time.Since(start)
		g.publish(ctx, base, observer.AnalysisFailed, appErr)
		return nil, appErr
	}

	doc, err := ParseReply(reply)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithFields(logrus.Fields{
			"provider": base.Provider,
			"reply":    truncate(reply, maxLoggedReply),
		}).Warn("Model reply could not be parsed")
		span.AddEvent("parse_fallback")
		g.publish(ctx, base, observer.ParseFallback, nil)
		doc = costing.ParseErrorPlaceholder()
	}

	result := costing.Normalize(doc)
	if quality != nil {
		result[FieldFrameQuality] = quality
	}
	if labelText != "" {
		result[FieldLabelEvidence] = labels.Corroborate(result.Text(costing.FieldProductName), labelText)
	}

	base.ProcessingTime = time.Since(start)
	base.Success = true
	g.publish(ctx, base, observer.AnalysisCompleted, nil)
	return result, nil
}

func (g *Gateway) inspectFrame(ctx context.Context, img imagesource.Image) *frame.Quality {
	if g.frames == nil {
		return nil
	}
	q, err := g.frames.InspectBytes(img.Data)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("mime_type", img.MIMEType).Debug("Skipping frame quality check")
		return nil
	}
	return &q
}

func (g *Gateway) readLabel(ctx context.Context, img imagesource.Image) string {
	if g.labels == nil {
		return ""
	}
	text, err := g.labels.ReadText(ctx, img.Data)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Debug("Label OCR failed")
		return ""
	}
	return text
}

func (g *Gateway) publish(ctx context.Context, base observer.AnalysisEvent, eventType observer.EventType, appErr *apperrors.AppError) {
	event := base
	event.EventType = eventType
	if appErr != nil {
		event.ErrorMessage = appErr.Message
		event.Metadata = map[string]interface{}{"error_type": string(appErr.Type)}
	}
	g.events.NotifyObservers(ctx, event)
}

// classify maps a model call failure onto the error taxonomy. Provider fields
// are passed through unchanged.
func classify(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("model call timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError("model call cancelled", err)
	}
	var pe *apperrors.ProviderError
	if errors.As(err, &pe) {
		details := pe.Details
		return apperrors.NewUpstreamError(pe.Message, &details, err)
	}
	return apperrors.NewUpstreamError(err.Error(), nil, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
