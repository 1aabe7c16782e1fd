package observer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event AnalysisEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                         { return "panicking" }

func TestMetricsObserver_Stats(t *testing.T) {
	metrics := NewMetricsObserver()
	publisher := NewEventPublisher()
	publisher.Subscribe(metrics)

	ctx := context.Background()
	publisher.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisStarted})
	publisher.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisCompleted, ProcessingTime: 200 * time.Millisecond, Success: true})
	publisher.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisStarted})
	publisher.NotifyObservers(ctx, AnalysisEvent{EventType: ParseFallback})
	publisher.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisCompleted, ProcessingTime: 400 * time.Millisecond, Success: true})
	publisher.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisStarted})
	publisher.NotifyObservers(ctx, AnalysisEvent{EventType: AnalysisFailed, Metadata: map[string]interface{}{"error_type": "upstream"}})

	stats := metrics.Stats()
	if stats.TotalAnalyses != 3 {
		t.Errorf("Expected 3 analyses, got %d", stats.TotalAnalyses)
	}
	if stats.SuccessfulAnalyses != 2 || stats.FailedAnalyses != 1 {
		t.Errorf("Expected 2 successful and 1 failed, got %+v", stats)
	}
	if stats.ParseFallbacks != 1 {
		t.Errorf("Expected 1 parse fallback, got %d", stats.ParseFallbacks)
	}
	if stats.UpstreamErrors != 1 {
		t.Errorf("Expected 1 upstream error, got %d", stats.UpstreamErrors)
	}
	if stats.AvgProcessingTime != 300 {
		t.Errorf("Expected avg 300ms, got %d", stats.AvgProcessingTime)
	}
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	metrics := NewMetricsObserver()
	publisher := NewEventPublisher()
	publisher.Subscribe(metrics)
	publisher.Unsubscribe(metrics)

	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	if got := metrics.Stats().TotalAnalyses; got != 0 {
		t.Errorf("Expected no events after unsubscribe, got %d", got)
	}
}

func TestEventPublisher_RecoversFromPanics(t *testing.T) {
	metrics := NewMetricsObserver()
	publisher := NewEventPublisher()
	publisher.Subscribe(panickingObserver{})
	publisher.Subscribe(metrics)

	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	if got := metrics.Stats().TotalAnalyses; got != 1 {
		t.Errorf("Expected healthy observer to receive the event, got %d", got)
	}
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	obs := NewLoggingObserver(log)
	obs.OnEvent(context.Background(), AnalysisEvent{
		EventType: ParseFallback,
		RequestID: "req-1",
		Provider:  "openai",
	})

	out := buf.String()
	for _, want := range []string{`"level":"warning"`, `"request_id":"req-1"`, `"event_type":"parse_fallback"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %s, got %s", want, out)
		}
	}
}
