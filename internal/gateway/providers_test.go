package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
)

var testImage = imagesource.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}

func TestOpenAIClient_Complete(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":" {\"productName\":\"Kettle\"} "}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("sk-test", server.URL+"/", "gpt-4o")
	reply, err := client.Complete(context.Background(), NewRequest(testImage))
	require.NoError(t, err)
	assert.Equal(t, `{"productName":"Kettle"}`, reply)

	assert.Equal(t, "gpt-4o", got["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	parts := user["content"].([]any)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/png;base64,"))
}

func TestOpenAIClient_ProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    apperrors.ProviderDetails
		wantMsg string
	}{
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			want:    apperrors.ProviderDetails{Status: 429, Code: "rate_limit_exceeded", Type: "requests"},
			wantMsg: "Rate limit reached",
		},
		{
			name:    "invalid key with null code",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":null}}`,
			want:    apperrors.ProviderDetails{Status: 401, Type: "invalid_request_error"},
			wantMsg: "Incorrect API key provided",
		},
		{
			name:    "non-json body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			want:    apperrors.ProviderDetails{Status: 502},
			wantMsg: "API request failed with status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOpenAIClient("sk-test", server.URL, "gpt-4o").Complete(context.Background(), NewRequest(testImage))
			var pe *apperrors.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.want, pe.Details)
			assert.Equal(t, tt.wantMsg, pe.Message)
			assert.Equal(t, 1, calls, "provider errors are not retried")
		})
	}
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	reply, err := NewOpenAIClient("sk-test", server.URL, "gpt-4o").Complete(context.Background(), NewRequest(testImage))
	require.NoError(t, err)
	assert.Empty(t, reply)
}

type mockMessager struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (m *mockMessager) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	m.params = params
	return m.resp, m.err
}

func TestAnthropicClient_Complete(t *testing.T) {
	mock := &mockMessager{resp: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: `{"productName":`},
		{Type: "text", Text: `"Kettle"}`},
	}}}
	orig := newAnthropicClient
	newAnthropicClient = func(apiKey string) AnthropicMessager { return mock }
	defer func() { newAnthropicClient = orig }()

	client := NewAnthropicClient("key", "claude-sonnet-4-20250514")
	reply, err := client.Complete(context.Background(), NewRequest(testImage))
	require.NoError(t, err)
	assert.Equal(t, `{"productName":"Kettle"}`, reply)
	assert.Equal(t, anthropic.Model("claude-sonnet-4-20250514"), mock.params.Model)
	require.Len(t, mock.params.Messages, 1)
	assert.Len(t, mock.params.Messages[0].Content, 2)
	require.Len(t, mock.params.System, 1)
	assert.Equal(t, SystemPrompt, mock.params.System[0].Text)
}

func TestAnthropicClient_TransportError(t *testing.T) {
	mock := &mockMessager{err: errors.New("connection reset")}
	client := &AnthropicClient{messages: mock, model: "claude"}

	_, err := client.Complete(context.Background(), NewRequest(testImage))
	assert.EqualError(t, err, "connection reset")
}

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func TestGeminiClient_Complete(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(`{"productName":"Kettle"}`, genai.RoleModel)}},
	}}
	client := &GeminiClient{models: gen, model: "gemini-2.5-flash"}

	reply, err := client.Complete(context.Background(), NewRequest(testImage))
	require.NoError(t, err)
	assert.Equal(t, `{"productName":"Kettle"}`, reply)
	assert.Equal(t, "gemini-2.5-flash", gen.model)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.Len(t, gen.contents, 1)
	require.Len(t, gen.contents[0].Parts, 2)
	require.NotNil(t, gen.contents[0].Parts[0].InlineData)
	assert.Equal(t, "image/png", gen.contents[0].Parts[0].InlineData.MIMEType)
}

func TestGeminiClient_APIError(t *testing.T) {
	gen := &fakeGenerator{err: genai.APIError{Code: 403, Message: "API key not valid", Status: "PERMISSION_DENIED"}}
	client := &GeminiClient{models: gen, model: "gemini-2.5-flash"}

	_, err := client.Complete(context.Background(), NewRequest(testImage))
	var pe *apperrors.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, apperrors.ProviderDetails{Status: 403, Code: "PERMISSION_DENIED"}, pe.Details)
	assert.Equal(t, "API key not valid", pe.Message)
}
