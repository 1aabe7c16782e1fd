package service

import (
	"context"

	"github.com/anime-shed/truecost-inspector-go/internal/costing"
	"github.com/anime-shed/truecost-inspector-go/internal/gateway"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
)

// ImageResolver turns request input into a frame.
type ImageResolver interface {
	Resolve(ctx context.Context, src imagesource.Source) (imagesource.Image, error)
}

// AnalysisService defines the operations exposed over HTTP
type AnalysisService interface {
	// Ready reports a configuration problem that fails every analysis.
	Ready() error
	// Analyze resolves the frame and runs it through the gateway.
	Analyze(ctx context.Context, src imagesource.Source) (costing.Document, error)
	// Normalize applies the result normalizer to an arbitrary decoded body.
	Normalize(raw any) (costing.Document, string)
}

// analysisService implements AnalysisService
type analysisService struct {
	resolver ImageResolver
	analyzer gateway.Analyzer
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(resolver ImageResolver, analyzer gateway.Analyzer) AnalysisService {
	return &analysisService{
		resolver: resolver,
		analyzer: analyzer,
	}
}

func (s *analysisService) Ready() error {
	return s.analyzer.Ready()
}

// Analyze fails fast on a missing credential, before any image is decoded or fetched.
func (s *analysisService) Analyze(ctx context.Context, src imagesource.Source) (costing.Document, error) {
	if err := s.analyzer.Ready(); err != nil {
		return nil, err
	}
	img, err := s.resolver.Resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, img)
}

// Normalize returns the normalized document and its display markup ("N/A" when
// not applicable).
func (s *analysisService) Normalize(raw any) (costing.Document, string) {
	doc := costing.Normalize(raw)
	return doc, costing.FormatMarkup(doc)
}
