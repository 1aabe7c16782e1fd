package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{" WARN ", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"verbose", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}
	for _, tt := range tests {
		SetLevel(tt.input)
		if got := Logger.GetLevel(); got != tt.want {
			t.Errorf("SetLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("Expected empty request id, got %q", got)
	}

	ctx := ContextWithRequestID(context.Background(), "req-42")
	if got := RequestIDFromContext(ctx); got != "req-42" {
		t.Errorf("Expected req-42, got %q", got)
	}

	var buf bytes.Buffer
	orig := Logger.Out
	Logger.SetOutput(&buf)
	defer Logger.SetOutput(orig)

	FromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Errorf("Expected request id in log line, got %s", buf.String())
	}
}
