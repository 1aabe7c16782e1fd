package models

// AnalyzeRequest is the JSON body of POST /api/analyze. Exactly one of the
// fields is expected; imageBase64 may be a data URL.
type AnalyzeRequest struct {
	ImageBase64 string `json:"imageBase64"`
	ImageURL    string `json:"imageUrl" binding:"omitempty,url"`
}

// ErrorDetails carries provider diagnostics passed through verbatim.
type ErrorDetails struct {
	Status int    `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
	Type   string `json:"type,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string        `json:"error"`
	Type    string        `json:"type"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// NormalizeResponse is returned by POST /api/normalize.
type NormalizeResponse struct {
	Result map[string]any `json:"result"`
	Markup string         `json:"markup"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Time     string `json:"time"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Ready    bool   `json:"ready"`
}
