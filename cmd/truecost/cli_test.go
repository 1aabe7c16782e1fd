package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/truecost-inspector-go/internal/costing"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
	"github.com/anime-shed/truecost-inspector-go/pkg/models"
)

func TestRenderSummary(t *testing.T) {
	s := costing.Summarize(map[string]any{
		"productName":  "Acme Kettle",
		"category":     "Kitchen",
		"materials":    []any{"steel", "plastic"},
		"estimatedBOM": map[string]any{"lowUSD": 5, "highUSD": 20},
		"marketPrice":  map[string]any{"lowUSD": 50, "highUSD": 200},
		"environmentalImpact": map[string]any{
			"sustainabilityScore": 140,
			"carbonFootprint":     map[string]any{"kgCO2e": 12.34},
		},
	})

	out := renderSummary(s)
	assert.Contains(t, out, "Acme Kettle")
	assert.Contains(t, out, "Materials:     steel, plastic")
	assert.Contains(t, out, "BOM cost:      5.00 - 20.00 USD")
	assert.Contains(t, out, "Market price:  50.00 - 200.00 USD")
	assert.Contains(t, out, "Markup:        60.0% - 97.5%")
	assert.Contains(t, out, "Carbon:        12.3 kg CO2e")
	// Over-range scores fill the gauge but print as reported.
	assert.Contains(t, out, "["+strings.Repeat("#", gaugeWidth)+"] 140")
}

func TestRenderSummary_NotApplicable(t *testing.T) {
	s := costing.Summarize(map[string]any{
		"estimatedBOM": map[string]any{"lowUSD": 5},
		"marketPrice":  map[string]any{"lowUSD": 0, "highUSD": 0},
	})
	out := renderSummary(s)
	assert.Contains(t, out, "Unknown product")
	assert.Contains(t, out, "Markup:        N/A")
}

func TestAnalyzeRemote(t *testing.T) {
	var got models.AnalyzeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"productName":"Kettle","estimatedBOM":{"lowUSD":12,"highUSD":5}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))

	result, err := analyzeRemote(t.Context(), server.Client(), server.URL+"/", imagesource.Source{Raw: buf.Bytes()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.ImageBase64, "data:image/png;base64,"))

	// The consumer normalizes again.
	s := costing.Summarize(result)
	require.NotNil(t, s.EstimatedBOM)
	assert.Equal(t, costing.CostRange{Low: 12, High: 12}, *s.EstimatedBOM)
}

func TestAnalyzeRemote_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"Rate limit reached","type":"upstream","details":{"status":429,"code":"rate_limit_exceeded","type":"requests"}}`))
	}))
	defer server.Close()

	_, err := analyzeRemote(t.Context(), server.Client(), server.URL, imagesource.Source{URL: "https://example.com/k.jpg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rate limit reached")
	assert.Contains(t, err.Error(), "code=rate_limit_exceeded")
}

func TestSourceFromArg(t *testing.T) {
	src, err := sourceFromArg("HTTPS://example.com/k.jpg")
	require.NoError(t, err)
	assert.Equal(t, "HTTPS://example.com/k.jpg", src.URL)

	path := filepath.Join(t.TempDir(), "frame.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))
	src, err = sourceFromArg(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, src.Raw)

	_, err = sourceFromArg(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestNormalizeCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(`{"productName":"Mug","marketPrice":{"lowUSD":"7"}}`))
	rootCmd.SetArgs([]string{"normalize", "--json"})
	defer func() { jsonOutput = false }()

	require.NoError(t, rootCmd.Execute())

	var s costing.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, "Mug", s.ProductName)
	require.NotNil(t, s.MarketPrice)
	assert.Equal(t, costing.CostRange{Low: 7, High: 7}, *s.MarketPrice)
	assert.Equal(t, "USD", s.Currency)
}
