package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/truecost-inspector-go/internal/costing"
	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
)

type stubResolver struct {
	img   imagesource.Image
	err   error
	calls *int
}

func (s stubResolver) Resolve(ctx context.Context, src imagesource.Source) (imagesource.Image, error) {
	if s.calls != nil {
		*s.calls++
	}
	return s.img, s.err
}

type stubAnalyzer struct {
	calls    int
	notReady error
}

func (s *stubAnalyzer) Ready() error { return s.notReady }

func (s *stubAnalyzer) Analyze(ctx context.Context, img imagesource.Image) (costing.Document, error) {
	s.calls++
	return costing.Document{"productName": "Kettle"}, nil
}

func TestAnalyze(t *testing.T) {
	analyzer := &stubAnalyzer{}
	svc := NewAnalysisService(stubResolver{img: imagesource.Image{Data: []byte{1}, MIMEType: "image/png"}}, analyzer)

	doc, err := svc.Analyze(context.Background(), imagesource.Source{Raw: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "Kettle", doc.Text("productName"))
	assert.Equal(t, 1, analyzer.calls)
}

func TestAnalyze_ResolveFailureSkipsModel(t *testing.T) {
	analyzer := &stubAnalyzer{}
	svc := NewAnalysisService(stubResolver{err: apperrors.NewValidationError("No image", errors.New("no image"))}, analyzer)

	_, err := svc.Analyze(context.Background(), imagesource.Source{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Zero(t, analyzer.calls)
}

func TestAnalyze_MissingCredentialBeforeResolve(t *testing.T) {
	cfgErr := apperrors.NewConfigurationError("OpenAI API key not configured", nil)
	analyzer := &stubAnalyzer{notReady: cfgErr}
	var resolves int
	svc := NewAnalysisService(stubResolver{calls: &resolves}, analyzer)

	assert.Same(t, cfgErr, svc.Ready())

	for _, src := range []imagesource.Source{{}, {URL: "https://example.com/frame.png"}} {
		_, err := svc.Analyze(context.Background(), src)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
	}
	assert.Zero(t, resolves, "no frame is resolved without a credential")
	assert.Zero(t, analyzer.calls)
}

func TestNormalize(t *testing.T) {
	svc := NewAnalysisService(stubResolver{}, &stubAnalyzer{})

	doc, markup := svc.Normalize(map[string]any{
		"estimatedBOM": map[string]any{"lowUSD": 5, "highUSD": 20},
		"marketPrice":  map[string]any{"lowUSD": 50, "highUSD": 200},
	})
	assert.Equal(t, "60.0% - 97.5%", markup)
	assert.Equal(t, "USD", doc.Object("marketPrice").Text("currency"))

	doc, markup = svc.Normalize(nil)
	assert.Empty(t, doc)
	assert.Equal(t, costing.NotApplicable, markup)
}
